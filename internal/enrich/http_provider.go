package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Meridian-Contracting/Triage/internal/opportunity"
)

// HTTPProvider calls one analysis backend over HTTP. The same shape serves
// every configured provider; only name, URL, key, and model differ.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewHTTPProvider(name, baseURL, apiKey, model string) *HTTPProvider {
	return &HTTPProvider{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type analyzeRequest struct {
	Model       string `json:"model,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Agency      string `json:"agency,omitempty"`
	NAICSCode   string `json:"naics_code,omitempty"`
}

func (p *HTTPProvider) Analyze(ctx context.Context, opp *opportunity.Opportunity) (*Analysis, error) {
	payload, err := json.Marshal(analyzeRequest{
		Model:       p.model,
		Title:       opp.Title,
		Description: opp.Description,
		Agency:      opp.Agency,
		NAICSCode:   opp.NAICSCode,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s analyze: %d %s", p.name, resp.StatusCode, string(body))
	}

	var analysis Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
