// Package llmtest provides a canned chat model for service tests, so
// pipeline stages can be exercised without a hosted completion service.
package llmtest

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// StubChatModel returns a fixed response (or error), counts invocations,
// and keeps the last rendered prompt so tests can assert on its content.
type StubChatModel struct {
	Response     string
	Err          error
	Calls        int
	LastMessages []*schema.Message
}

func (m *StubChatModel) Generate(_ context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.Calls++
	m.LastMessages = messages
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Response, nil), nil
}

func (m *StubChatModel) Stream(_ context.Context, messages []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.Calls++
	m.LastMessages = messages
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.Response, nil)}), nil
}

func (m *StubChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }
