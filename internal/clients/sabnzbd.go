package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Sabnzbd talks to the SABnzbd HTTP API.
type Sabnzbd struct {
	BaseURL string
	APIKey  string
}

// SetConfig writes one config item in a SABnzbd section, e.g.
// ("misc", "cache_limit", "512M").
func (s *Sabnzbd) SetConfig(ctx context.Context, section, keyword, value string) error {
	q := url.Values{
		"mode":    {"set_config"},
		"section": {section},
		"keyword": {keyword},
		"value":   {value},
		"apikey":  {s.APIKey},
		"output":  {"json"},
	}
	u := strings.TrimRight(s.BaseURL, "/") + "/api?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sabnzbd: set_config failed with status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}
	var status struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &status); err == nil && status.Error != "" {
		return fmt.Errorf("sabnzbd: set_config rejected: %s", status.Error)
	}
	return nil
}
