package eino

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatModel struct {
	content string
	err     error
	calls   int
}

func (m *stubChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.content}, nil
}

func (m *stubChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func testTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString, schema.UserMessage("classify {content}"))
}

func TestGenerateJSONUsesPrimaryModel(t *testing.T) {
	primary := &stubChatModel{content: `{"ok": true}`}
	fallback := &stubChatModel{content: `{"ok": false}`}
	svc := &Service{chatModel: primary, fallbackModel: fallback}

	result, err := svc.GenerateJSON(context.Background(), testTemplate(), map[string]any{"content": "x"})

	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback stays idle while the primary succeeds")
}

func TestGenerateJSONFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubChatModel{err: errors.New("quota exceeded")}
	fallback := &stubChatModel{content: `{"page_category": "jobs_listed"}`}
	svc := &Service{chatModel: primary, fallbackModel: fallback}

	result, err := svc.GenerateJSON(context.Background(), testTemplate(), map[string]any{"content": "x"})

	require.NoError(t, err)
	assert.Equal(t, "jobs_listed", result["page_category"])
	assert.Equal(t, 1, fallback.calls)
}

func TestGenerateJSONFallsBackOnUnparseableReply(t *testing.T) {
	primary := &stubChatModel{content: "I cannot answer in JSON."}
	fallback := &stubChatModel{content: `{"ok": true}`}
	svc := &Service{chatModel: primary, fallbackModel: fallback}

	result, err := svc.GenerateJSON(context.Background(), testTemplate(), map[string]any{"content": "x"})

	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
}

func TestGenerateJSONNoFallbackConfigured(t *testing.T) {
	primary := &stubChatModel{err: errors.New("quota exceeded")}
	svc := &Service{chatModel: primary}

	_, err := svc.GenerateJSON(context.Background(), testTemplate(), map[string]any{"content": "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestParseJSONResponseStripsCodeFences(t *testing.T) {
	result, err := ParseJSONResponse("```json\n{\"title\": \"Engineer\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", result["title"])
}
