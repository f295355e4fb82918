package intent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/callaudit/pkg/anthropic"
)

type mockAIClient struct {
	mock.Mock
	available bool
}

func (m *mockAIClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func (m *mockAIClient) Available() bool {
	return m.available
}

// textResponse wraps model output text in a single-block response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}
