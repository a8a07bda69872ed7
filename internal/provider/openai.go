package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// Defaults for the OpenAI client.
const (
	DefaultModel          = "gpt-5-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// OpenAI implements Generator, Summarizer and the thread package's
// Embedder on top of the OpenAI Responses and Embeddings APIs.
type OpenAI struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

// NewOpenAI creates a client. Model names fall back to the defaults.
func NewOpenAI(apiKey, model, embeddingModel string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingConfiguration
	}
	if model == "" {
		model = DefaultModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		client:         &client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

// Generate runs one plain-text generation round trip.
func (o *OpenAI) Generate(ctx context.Context, promptText string, maxTokens int64, temperature float64) (string, error) {
	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(maxTokens),
		Temperature:     openai.Float(temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(promptText),
		},
	}

	resp, err := callWithRetry(ctx, o.client, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	out := strings.TrimSpace(resp.OutputText())
	if out == "" {
		return "", fmt.Errorf("%w: empty model output", ErrGenerationFailed)
	}
	return out, nil
}

var summarySchema = generateSchema[SummaryResult]()

const summarizerInstructions = "You summarize one journal message. Return a short second-person " +
	"summary (one or two sentences) that keeps the emotional core intact, plus high-level topics " +
	"and any named entities mentioned. Empty lists are fine."

// Summarize runs the structured enrichment call.
func (o *OpenAI) Summarize(ctx context.Context, text string) (SummaryResult, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "EntrySummary",
			Schema:      summarySchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Entry summary JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(400),
		Instructions:    openai.String(summarizerInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := callWithRetry(ctx, o.client, params)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var out SummaryResult
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return SummaryResult{}, fmt.Errorf("%w: unmarshal summary: %v", ErrGenerationFailed, err)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	return out, nil
}

// Embed produces the embedding vector for a text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: o.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings: empty response")
	}

	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}

// callWithRetry retries rate-limit and server errors with short waits.
// These calls sit on the user-facing request path, so waits stay small and
// the context is honored between attempts.
func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	waitTimes := []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == maxRetries-1 || !(isRateLimitError(err) || isServerError(err)) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTimes[attempt]):
		}
	}
	return nil, lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// decodeModelJSON unmarshals JSON from a model response, tolerating extra
// text around the object.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return fmt.Errorf("empty model output")
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(s[start:end+1]), v)
	}
	return fmt.Errorf("no JSON object in model output")
}
