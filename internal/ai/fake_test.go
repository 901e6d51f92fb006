package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// fakeCompleter replays scripted replies and records every request
type fakeCompleter struct {
	replies  []fakeReply
	requests []openai.ChatCompletionRequest
}

type fakeReply struct {
	content   string
	err       error
	noChoices bool
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		return openai.ChatCompletionResponse{}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	if r.noChoices {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: r.content}},
		},
	}, nil
}

func reply(content string) fakeReply { return fakeReply{content: content} }

func failure(err error) fakeReply { return fakeReply{err: err} }
