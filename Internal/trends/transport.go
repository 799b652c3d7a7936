package trends

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fazecat/demandpulse/Internal/utils/config"
)

const (
	scraperAPIProxyHost = "proxy-server.scraperapi.com:8001"
	scraperAPIEndpoint  = "http://api.scraperapi.com/"
)

// Credentials holds the secrets the proxied transports need.
type Credentials struct {
	ScraperAPIKey string
	ProxyURL      string
}

func CredentialsFromEnv() Credentials {
	return Credentials{
		ScraperAPIKey: os.Getenv("SCRAPERAPI_KEY"),
		ProxyURL:      os.Getenv("TRENDS_PROXY_URL"),
	}
}

// NewHTTPClient builds the HTTP client for the configured transport:
//
//	direct     - plain client
//	proxy      - TRENDS_PROXY_URL, or the ScraperAPI rotating proxy when only a key is set
//	scraperapi - every request is rewritten to the ScraperAPI fetch endpoint
func NewHTTPClient(cfg config.TrendsConfig, creds Credentials) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var rt http.RoundTripper = base
	switch strings.ToLower(cfg.Transport) {
	case "", "direct":
	case "proxy":
		proxyURL, err := resolveProxyURL(creds)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(proxyURL)
	case "scraperapi":
		if creds.ScraperAPIKey == "" {
			return nil, fmt.Errorf("scraperapi transport requires SCRAPERAPI_KEY")
		}
		rt = &scraperAPITransport{key: creds.ScraperAPIKey, endpoint: scraperAPIEndpoint, base: base}
	default:
		return nil, fmt.Errorf("unknown trends transport %q", cfg.Transport)
	}

	return &http.Client{
		Jar:       jar,
		Transport: rt,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

func resolveProxyURL(creds Credentials) (*url.URL, error) {
	if creds.ProxyURL != "" {
		u, err := url.Parse(creds.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid TRENDS_PROXY_URL: %w", err)
		}
		return u, nil
	}
	if creds.ScraperAPIKey != "" {
		return &url.URL{
			Scheme: "http",
			User:   url.UserPassword("scraperapi", creds.ScraperAPIKey),
			Host:   scraperAPIProxyHost,
		}, nil
	}
	return nil, fmt.Errorf("proxy transport requires TRENDS_PROXY_URL or SCRAPERAPI_KEY")
}

// scraperAPITransport sends every request through the ScraperAPI fetch endpoint.
type scraperAPITransport struct {
	key      string
	endpoint string
	base     http.RoundTripper
}

func (t *scraperAPITransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("api_key", t.key)
	q.Set("url", req.URL.String())
	u.RawQuery = q.Encode()

	out := req.Clone(req.Context())
	out.URL = u
	out.Host = u.Host
	return t.base.RoundTrip(out)
}
