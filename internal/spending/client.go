package spending

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// History summarizes past performance for one (agency, NAICS sector) pair.
// A nil History means the collaborator has no data for the pair.
type History struct {
	Agency          string  `json:"agency"`
	NAICSCode       string  `json:"naics_code"`
	WinRate         float64 `json:"win_rate"`
	Awards          int     `json:"awards"`
	ContractorCount int     `json:"contractor_count"`
	TotalObligated  float64 `json:"total_obligated"`
}

type Client interface {
	// AgencySectorHistory returns nil (not an error) when no data exists.
	AgencySectorHistory(ctx context.Context, agency, naicsCode string) (*History, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) AgencySectorHistory(ctx context.Context, agency, naicsCode string) (*History, error) {
	q := url.Values{}
	q.Set("agency", agency)
	q.Set("naics", naicsCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/history?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("spending GET /v1/history: %d %s", resp.StatusCode, string(body))
	}
	var h History
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, err
	}
	if h.Awards == 0 && h.WinRate == 0 && h.ContractorCount == 0 {
		return nil, nil
	}
	return &h, nil
}
