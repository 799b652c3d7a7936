package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
)

// SupabaseClient inserts snapshots through the PostgREST endpoint of a Supabase project.
type SupabaseClient struct {
	baseURL string
	key     string
	table   string
	http    *http.Client
}

func NewSupabaseClient(baseURL, key, table string) *SupabaseClient {
	return &SupabaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		table:   table,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewSupabaseFromEnv returns nil when SUPABASE_URL or SUPABASE_KEY is missing.
func NewSupabaseFromEnv(table string) *SupabaseClient {
	url, key := os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY")
	if url == "" || key == "" {
		return nil
	}
	return NewSupabaseClient(url, key, table)
}

func (c *SupabaseClient) Name() string { return "supabase" }

func (c *SupabaseClient) Publish(ctx context.Context, snap types.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/"+c.table, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("supabase insert into %s: status %d: %s", c.table, resp.StatusCode, utils.Truncate(string(msg), 200))
	}
	return nil
}
