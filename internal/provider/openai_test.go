package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAI("", "", "")
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestNewOpenAIDefaultsModels(t *testing.T) {
	c, err := NewOpenAI("sk-test", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, DefaultEmbeddingModel, c.embeddingModel)

	c, err = NewOpenAI("sk-test", "gpt-5", "text-embedding-3-large")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", c.model)
	assert.Equal(t, "text-embedding-3-large", c.embeddingModel)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("rate limit exceeded")))
	assert.False(t, isRateLimitError(errors.New("401 Unauthorized")))
	assert.False(t, isRateLimitError(nil))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, isServerError(errors.New("500 Internal Server Error")))
	assert.True(t, isServerError(errors.New("server_error: overloaded")))
	assert.False(t, isServerError(errors.New("400 Bad Request")))
	assert.False(t, isServerError(nil))
}

func TestDecodeModelJSON(t *testing.T) {
	var out SummaryResult
	err := decodeModelJSON(`{"summary":"You feel hopeless today.","topics":["mood"],"entities":[]}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "You feel hopeless today.", out.Summary)
	assert.Equal(t, []string{"mood"}, out.Topics)
	assert.Empty(t, out.Entities)
}

func TestDecodeModelJSONSurroundingText(t *testing.T) {
	var out SummaryResult
	err := decodeModelJSON("Here you go:\n```json\n{\"summary\":\"s\",\"topics\":[],\"entities\":[]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "s", out.Summary)
}

func TestDecodeModelJSONRejectsGarbage(t *testing.T) {
	var out SummaryResult
	assert.Error(t, decodeModelJSON("", &out))
	assert.Error(t, decodeModelJSON("no json here", &out))
}

func TestSummarySchemaStrictShape(t *testing.T) {
	schema := generateSchema[SummaryResult]()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, field := range []string{"summary", "topics", "entities"} {
		assert.Contains(t, props, field)
	}

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"summary", "topics", "entities"}, required)
}
