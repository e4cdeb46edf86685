package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/prompts"
)

// envelopeSchema describes the response body of /process and /extract.
const envelopeSchema = `{
  "type": "object",
  "properties": {
    "success": {"type": "boolean"},
    "extractions": {"type": ["array", "null"], "items": {"type": "object"}},
    "headers": {"type": ["array", "null"], "items": {"type": "string"}},
    "display_headers": {"type": ["array", "null"], "items": {"type": "string"}},
    "error": {"type": ["string", "null"]}
  }
}`

// Submitter performs one extraction exchange for a single unit.
type Submitter interface {
	Submit(ctx context.Context, unit *domain.InputUnit, instruction string) domain.Outcome
}

// ExtractionClient talks to the external extraction service.
type ExtractionClient struct {
	client  *resty.Client
	baseURL string
	surveys *SurveyResolver
	schema  *jsonschema.Schema
}

// ExtractionConfig holds configuration for the extraction client.
type ExtractionConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type extractionEnvelope struct {
	Success        *bool           `json:"success"`
	Extractions    []domain.Record `json:"extractions"`
	Headers        []string        `json:"headers"`
	DisplayHeaders []string        `json:"display_headers"`
	Error          string          `json:"error"`
}

type extractRequest struct {
	Content string   `json:"content"`
	Prompt  string   `json:"prompt"`
	Columns []string `json:"columns"`
}

// NewExtractionClient creates a new extraction client.
// Parameters:
//   - cfg: service base URL, optional API key and request timeout.
//   - surveys: resolver used for record units that arrive without content; may be nil.
//
// Returns:
//   - *ExtractionClient: initialized client.
//   - error: non-nil if the response schema fails to compile.
func NewExtractionClient(cfg *ExtractionConfig, surveys *SurveyResolver) (*ExtractionClient, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("envelope.json", strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	schema, err := compiler.Compile("envelope.json")
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}

	client := resty.New()
	// Content-Type is set per request: multipart for /process, JSON for /extract.
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	return &ExtractionClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		surveys: surveys,
		schema:  schema,
	}, nil
}

// Submit sends one unit to the extraction service. Every failure is
// converted into a Failure outcome; Submit never retries.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - unit: accepted file or record unit.
//   - instruction: prompt text built from the model id and params.
//
// Returns:
//   - domain.Outcome: Success with rows and field lists, or Failure with a tagged UnitError.
func (c *ExtractionClient) Submit(ctx context.Context, unit *domain.InputUnit, instruction string) domain.Outcome {
	start := time.Now()

	var (
		httpResp *resty.Response
		err      error
	)
	if unit.IsRecord() {
		httpResp, err = c.submitRecord(ctx, unit, instruction)
	} else {
		httpResp, err = c.request(ctx).
			SetFileReader("file", unit.Name, bytes.NewReader(unit.Payload)).
			SetFormData(map[string]string{"prompt": instruction}).
			Post(c.baseURL + "/process")
	}

	if err != nil {
		var ue *domain.UnitError
		if !errors.As(err, &ue) {
			ue = &domain.UnitError{
				Kind:    domain.FailureTransport,
				Message: fmt.Sprintf("failed to call extraction API: %v", err),
				Cause:   err,
			}
		}
		logger.With(logger.Fields{logger.FieldUnit: unit.Name}).
			WithDuration(time.Since(start).Milliseconds()).
			Warn(ctx, "Extraction request failed: %s", ue.Message)
		return domain.Failure(unit, ue)
	}

	outcome := c.decode(unit, httpResp)
	entry := logger.With(logger.Fields{
		logger.FieldUnit:   unit.Name,
		logger.FieldStatus: httpResp.StatusCode(),
	}).WithDuration(time.Since(start).Milliseconds())
	if outcome.Succeeded() {
		entry.WithCount(len(outcome.Result.Rows)).Debug(ctx, "Extraction succeeded")
	} else {
		entry.Warn(ctx, "Extraction failed: %s", outcome.Err.Message)
	}
	return outcome
}

func (c *ExtractionClient) submitRecord(ctx context.Context, unit *domain.InputUnit, instruction string) (*resty.Response, error) {
	content := string(unit.Payload)
	if content == "" {
		if c.surveys == nil {
			return nil, &domain.UnitError{
				Kind:    domain.FailureService,
				Message: fmt.Sprintf("no content for record %q", unit.RecordID),
				Cause:   domain.ErrSourceRecordNotFound,
			}
		}
		survey, err := c.surveys.Find(ctx, unit.RecordID)
		if err != nil {
			kind := domain.FailureTransport
			if errors.Is(err, domain.ErrSourceRecordNotFound) {
				kind = domain.FailureService
			}
			return nil, &domain.UnitError{Kind: kind, Message: err.Error(), Cause: err}
		}
		content = survey.Content()
	}

	return c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(extractRequest{
			Content: content,
			Prompt:  instruction,
			Columns: prompts.ExistingDataColumns,
		}).
		Post(c.baseURL + "/extract")
}

// request starts a call that carries the caller's request id, if any.
func (c *ExtractionClient) request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if id := logger.GetRequestID(ctx); id != "" {
		req.SetHeader("X-Request-ID", id)
	}
	return req
}

// decode classifies a received response into an outcome.
func (c *ExtractionClient) decode(unit *domain.InputUnit, httpResp *resty.Response) domain.Outcome {
	status := httpResp.StatusCode()
	body := httpResp.Body()

	if status < 200 || status >= 300 {
		msg := fmt.Sprintf("HTTP %d", status)
		var env extractionEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != "" {
			msg = env.Error
		}
		return domain.Failure(unit, &domain.UnitError{
			Kind:       domain.FailureTransport,
			StatusCode: status,
			Message:    msg,
		})
	}

	var doc interface{}
	if err := decodeJSON(body, &doc); err != nil {
		return malformed(unit, status, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return malformed(unit, status, err)
	}

	var env extractionEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return malformed(unit, status, err)
	}

	if (env.Success != nil && !*env.Success) || env.Error != "" {
		msg := env.Error
		if msg == "" {
			msg = "Extraction failed"
		}
		return domain.Failure(unit, &domain.UnitError{
			Kind:       domain.FailureService,
			StatusCode: status,
			Message:    msg,
		})
	}

	rows := env.Extractions
	if rows == nil {
		rows = []domain.Record{}
	}
	return domain.Success(unit, &domain.ExtractionResult{
		Rows:          rows,
		Fields:        env.Headers,
		DisplayFields: env.DisplayHeaders,
	})
}

// decodeJSON keeps numbers as json.Number so large ids survive export.
func decodeJSON(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func malformed(unit *domain.InputUnit, status int, err error) domain.Outcome {
	return domain.Failure(unit, &domain.UnitError{
		Kind:       domain.FailureService,
		StatusCode: status,
		Message:    fmt.Sprintf("malformed response: %v", err),
		Cause:      err,
	})
}
