package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return "stub answer", nil
}

func (stubProvider) Name() string { return "stub" }

func TestRegistry_RegisterAndCreate(t *testing.T) {
	RegisterChatProvider("stub", func(config map[string]any) (ChatProvider, error) {
		return stubProvider{}, nil
	})

	p, err := NewChatProvider("stub", nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())

	answer, err := p.Generate(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, "stub answer", answer)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	_, err := NewChatProvider("no-such-provider", nil)
	assert.Error(t, err)
}
