package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/utils"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func newClient(fc *fakeCompleter) *OpenAIClient {
	return NewOpenAIClient(fc, "gpt-4", 300, 0.3, 0.9, 20, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
}

func TestSummarize(t *testing.T) {
	fc := &fakeCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  Meeting moved to Friday.  "}}},
	}}

	summary, err := newClient(fc).Summarize(context.Background(), &core.Email{
		From:    "boss@company.com",
		Subject: "Meeting",
		Body:    strings.Repeat("x", 100),
	})
	require.NoError(t, err)
	assert.Equal(t, "Meeting moved to Friday.", summary)

	require.Len(t, fc.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fc.req.Messages[0].Role)
	assert.Contains(t, fc.req.Messages[1].Content, "Email Subject: Meeting")
	assert.Contains(t, fc.req.Messages[1].Content, "truncated")
	assert.Equal(t, 300, fc.req.MaxTokens)
}

func TestSummarizeErrors(t *testing.T) {
	_, err := newClient(&fakeCompleter{err: errors.New("rate limited")}).Summarize(context.Background(), &core.Email{})
	assert.Error(t, err)

	_, err = newClient(&fakeCompleter{}).Summarize(context.Background(), &core.Email{})
	assert.Error(t, err)
}
