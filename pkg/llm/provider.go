// Package llm provides the text-completion provider abstraction used
// by the answering step.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// ChatProvider is a one-shot text-completion service.
type ChatProvider interface {
	// Generate produces a completion for the prompt. The call is
	// synchronous and bounded by the request context; implementations
	// must not retry.
	Generate(ctx context.Context, prompt string, systemPrompt string) (string, error)

	// Name returns the provider name.
	Name() string
}

// ChatProviderFactory builds a provider from its configuration map.
type ChatProviderFactory func(config map[string]any) (ChatProvider, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]ChatProviderFactory
}{
	factories: make(map[string]ChatProviderFactory),
}

// RegisterChatProvider registers a provider factory under a name.
// Providers call this from init; importing a provider package makes it
// available.
func RegisterChatProvider(name string, factory ChatProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = factory
}

// NewChatProvider creates a provider instance by name.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown chat provider: %s", name)
	}
	return factory(config)
}
