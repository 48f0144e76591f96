package models

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAILLM is an ungrounded alternate backend. It answers from model weights
// only, so Sources is always empty.
type OpenAILLM struct {
	Client  *openai.Client
	Model   string
	Timeout time.Duration
}

func NewOpenAILLM(model, apiKey string, timeout time.Duration) *OpenAILLM {
	client := openai.NewClient(apiKey)
	return &OpenAILLM{Client: client, Model: model, Timeout: timeout}
}

func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (Response, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("no response from OpenAI")
	}
	return Response{Text: resp.Choices[0].Message.Content}, nil
}

var _ Agent = (*OpenAILLM)(nil)
