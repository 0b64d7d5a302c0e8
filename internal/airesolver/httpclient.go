// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package airesolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dedupecore/eventdedupe/internal/models"
)

// HTTPClientConfig configures the REST-based LLM collaborator client.
type HTTPClientConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// HTTPClient is the default LLMClient: it POSTs a structured arbitration
// request and decodes the structured {decision, confidence, reasoning}
// response.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

// NewHTTPClient builds an LLMClient backed by a plain HTTP request/response
// contract.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type arbitrationRequest struct {
	Model        string            `json:"model"`
	Temperature  float64           `json:"temperature"`
	MaxTokens    int               `json:"max_tokens"`
	TitleA       string            `json:"title_a"`
	TitleB       string            `json:"title_b"`
	DescriptionA string            `json:"description_a"`
	DescriptionB string            `json:"description_b"`
	LocationA    string            `json:"location_a"`
	LocationB    string            `json:"location_b"`
	SourceTypeA  string            `json:"source_type_a"`
	SourceTypeB  string            `json:"source_type_b"`
	Scores       arbitrationScores `json:"scores"`
}

type arbitrationScores struct {
	Date        float64 `json:"date"`
	Geo         float64 `json:"geo"`
	Title       float64 `json:"title"`
	Description float64 `json:"description"`
}

type arbitrationResponse struct {
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	TokensIn   int     `json:"tokens_in"`
	TokensOut  int     `json:"tokens_out"`
}

// Resolve implements LLMClient.
func (c *HTTPClient) Resolve(ctx context.Context, req PairContext) (Response, error) {
	body := arbitrationRequest{
		Model:        c.cfg.Model,
		Temperature:  c.cfg.Temperature,
		MaxTokens:    c.cfg.MaxTokens,
		TitleA:       req.TitleA,
		TitleB:       req.TitleB,
		DescriptionA: req.DescriptionA,
		DescriptionB: req.DescriptionB,
		LocationA:    req.LocationA,
		LocationB:    req.LocationB,
		SourceTypeA:  string(req.SourceTypeA),
		SourceTypeB:  string(req.SourceTypeB),
		Scores: arbitrationScores{
			Date:        req.Scores.Date,
			Geo:         req.Scores.Geo,
			Title:       req.Scores.Title,
			Description: req.Scores.Description,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal arbitration request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return Response{}, fmt.Errorf("build arbitration request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("arbitration request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("arbitration request returned status %d", resp.StatusCode)
	}

	var decoded arbitrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, fmt.Errorf("decode arbitration response: %w", err)
	}

	return Response{
		Decision:   decisionFromString(decoded.Decision),
		Confidence: decoded.Confidence,
		Reasoning:  decoded.Reasoning,
		TokensIn:   decoded.TokensIn,
		TokensOut:  decoded.TokensOut,
	}, nil
}

func decisionFromString(s string) models.AIDecision {
	if s == string(models.AIDecisionSame) {
		return models.AIDecisionSame
	}
	return models.AIDecisionDifferent
}
