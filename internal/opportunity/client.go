package opportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Opportunity is the fixed input contract supplied by the opportunity-data
// collaborator. ID is the only mandatory field; everything else degrades to
// a neutral factor score when absent.
type Opportunity struct {
	ID                   string     `json:"id"`
	SolicitationNumber   string     `json:"solicitation_number,omitempty"`
	Title                string     `json:"title,omitempty"`
	Description          string     `json:"description,omitempty"`
	Agency               string     `json:"agency,omitempty"`
	NAICSCode            string     `json:"naics_code,omitempty"`
	OpportunityType      string     `json:"opportunity_type,omitempty"`
	SetAside             string     `json:"set_aside,omitempty"`
	EstimatedValue       *float64   `json:"estimated_value,omitempty"`
	ResponseDeadline     *time.Time `json:"response_deadline,omitempty"`
	RequiredCapabilities []string   `json:"required_capabilities,omitempty"`
	AttachmentCount      *int       `json:"attachment_count,omitempty"`
}

// SearchParams scopes a pull of recently posted opportunities for batch
// evaluation.
type SearchParams struct {
	PostedSince time.Time
	NAICSCode   string
	Limit       int
}

type Client interface {
	GetOpportunity(ctx context.Context, id string) (*Opportunity, error)
	SearchOpportunities(ctx context.Context, params SearchParams) ([]*Opportunity, error)
}

type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("opportunity GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) GetOpportunity(ctx context.Context, id string) (*Opportunity, error) {
	data, err := c.doReq(ctx, "/v2/opportunities/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var opp Opportunity
	if err := json.Unmarshal(data, &opp); err != nil {
		return nil, err
	}
	return &opp, nil
}

func (c *HTTPClient) SearchOpportunities(ctx context.Context, params SearchParams) ([]*Opportunity, error) {
	q := url.Values{}
	if !params.PostedSince.IsZero() {
		q.Set("posted_since", params.PostedSince.Format("2006-01-02"))
	}
	if params.NAICSCode != "" {
		q.Set("naics", params.NAICSCode)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	q.Set("limit", strconv.Itoa(limit))

	data, err := c.doReq(ctx, "/v2/opportunities?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var out struct {
		Opportunities []*Opportunity `json:"opportunities"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out.Opportunities, nil
}
