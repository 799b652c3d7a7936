package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Destination struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"nome"`
	State     string   `yaml:"state" json:"estado"`
	Region    string   `yaml:"region" json:"regiao"`
	Keywords  []string `yaml:"keywords" json:"keywords"`
	Latitude  float64  `yaml:"latitude" json:"lat"`
	Longitude float64  `yaml:"longitude" json:"lon"`
}

// Origin is one of the top places the search demand comes from.
// Location and Percent duplicate Name and Percentage for the dashboard file.
type Origin struct {
	Position   int     `json:"posicao"`
	Name       string  `json:"origem"`
	Location   string  `json:"location"`
	Percentage float64 `json:"percentual"`
	Percent    float64 `json:"percent"`
	Impact     string  `json:"impacto"`
}

type Weather struct {
	CurrentTemp   float64 `json:"temperatura_atual"`
	MaxTemp       float64 `json:"temp_max"`
	MinTemp       float64 `json:"temp_min"`
	Precipitation float64 `json:"precipitacao"`
	Condition     string  `json:"condicao"`
}

type TrendSummary struct {
	Current   float64   `json:"current"`
	Variation float64   `json:"variation"`
	TrendData []float64 `json:"trend_data"`
}

type AudienceProfile struct {
	Couples  int `yaml:"couples" json:"casais"`
	Families int `yaml:"families" json:"familias"`
}

// Signals are the optional enrichments gathered next to the trend data.
type Signals struct {
	NewsSentiment    float64 // -1..1 lexicon average
	NewsMatches      int
	HasNewsSentiment bool
	Trending         bool
}

type Metrics struct {
	Status           string          `json:"status"`
	Emoji            string          `json:"emoji"`
	Mood             string          `json:"humor"`
	Growth           float64         `json:"crescimento"`
	BookingPressure  int             `json:"pressaoReserva"`
	ProximityTrigger int             `json:"gatilhoProximidade"`
	ViralVelocity    int             `json:"velocidadeViral"`
	Sentiment        int             `json:"sentimento"`
	StayIntent       int             `json:"intencaoEstadia"`
	Audience         AudienceProfile `json:"perfilPublico"`
	ClimateImpact    string          `json:"impactoClimatico"`
	ClimateFit       float64         `json:"aderenciaClimatica"`
	Insight          string          `json:"insight"`
}

// DestinationPulse is the per-destination record written to disk and to the backends.
type DestinationPulse struct {
	ID               string          `json:"id"`
	Name             string          `json:"nome"`
	State            string          `json:"estado"`
	Region           string          `json:"regiao"`
	Status           string          `json:"status"`
	Emoji            string          `json:"emoji"`
	Mood             string          `json:"humor"`
	Growth           float64         `json:"crescimento"`
	BookingPressure  int             `json:"pressaoReserva"`
	ProximityTrigger int             `json:"gatilhoProximidade"`
	ViralVelocity    int             `json:"velocidadeViral"`
	Sentiment        int             `json:"sentimento"`
	StayIntent       int             `json:"intencaoEstadia"`
	TopOrigins       []Origin        `json:"topOrigins"`
	Audience         AudienceProfile `json:"perfilPublico"`
	ClimateImpact    string          `json:"impactoClimatico"`
	ClimateFit       float64         `json:"aderenciaClimatica"`
	Trending         bool            `json:"emAlta"`
	Insight          string          `json:"insight"`
	Forecast         string          `json:"previsao"`
	LastUpdated      string          `json:"ultimaAtualizacao"`
}

// PulseData keeps collection order but serializes as an object keyed by destination id.
type PulseData []DestinationPulse

func (p PulseData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.ID)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(d)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *PulseData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("pulse data: expected object, got %v", tok)
	}

	out := PulseData{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var d DestinationPulse
		if err := dec.Decode(&d); err != nil {
			return fmt.Errorf("pulse data %q: %w", key, err)
		}
		if d.ID == "" {
			d.ID = key
		}
		out = append(out, d)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// Find returns the record with the given id.
func (p PulseData) Find(id string) (DestinationPulse, bool) {
	for _, d := range p {
		if d.ID == id {
			return d, true
		}
	}
	return DestinationPulse{}, false
}

type SnapshotMetadata struct {
	RunID             string   `json:"run_id,omitempty"`
	TotalDestinations int      `json:"total_destinos"`
	Top3Ranking       []string `json:"top_3_ranking"`
	LastUpdated       string   `json:"ultima_atualizacao"`
	Version           string   `json:"versao"`
	Failed            []string `json:"destinos_com_erro,omitempty"`
}

type Snapshot struct {
	Data     PulseData        `json:"data"`
	Metadata SnapshotMetadata `json:"metadata"`
}

// marshalNoEscape keeps "<", ">" and "&" literal, like the rest of the output files.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
