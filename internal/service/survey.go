package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/tabextract/internal/domain"
)

// Survey is one stored record offered by the survey API.
type Survey struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Raw   json.RawMessage `json:"-"`
}

// Content returns the record as indented JSON, which is what the
// extraction service receives as the document body.
func (s *Survey) Content() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, s.Raw, "", "  "); err != nil {
		return string(s.Raw)
	}
	return buf.String()
}

// SurveyResolver looks up stored records on the survey API.
type SurveyResolver struct {
	client  *resty.Client
	baseURL string
}

// NewSurveyResolver creates a resolver against baseURL (the API root, without /surveys).
func NewSurveyResolver(baseURL string, timeout time.Duration) *SurveyResolver {
	client := resty.New()
	client.SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &SurveyResolver{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// List fetches every survey the API knows about.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - []Survey: surveys in API order.
//   - error: non-nil on transport failure or a non-array body.
func (r *SurveyResolver) List(ctx context.Context) ([]Survey, error) {
	httpResp, err := r.client.R().
		SetContext(ctx).
		Get(r.baseURL + "/surveys")
	if err != nil {
		return nil, fmt.Errorf("failed to call survey API: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("survey API returned HTTP %d", httpResp.StatusCode())
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(httpResp.Body(), &raws); err != nil {
		return nil, fmt.Errorf("failed to decode survey list: %w", err)
	}

	surveys := make([]Survey, 0, len(raws))
	for _, raw := range raws {
		var head struct {
			ID    json.RawMessage `json:"id"`
			Title string          `json:"title"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("failed to decode survey: %w", err)
		}
		surveys = append(surveys, Survey{
			ID:    idString(head.ID),
			Title: head.Title,
			Raw:   raw,
		})
	}
	return surveys, nil
}

// Find resolves one survey by id.
// Returns domain.ErrSourceRecordNotFound (wrapped) when no survey matches.
func (r *SurveyResolver) Find(ctx context.Context, id string) (*Survey, error) {
	surveys, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range surveys {
		if surveys[i].ID == id {
			return &surveys[i], nil
		}
	}
	return nil, fmt.Errorf("survey %q: %w", id, domain.ErrSourceRecordNotFound)
}

// idString renders a JSON id (string or number) in the form callers select by.
func idString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
