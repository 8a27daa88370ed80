package llm

import (
	"fmt"

	"github.com/settlewatch/settlewatch/internal/model"
)

// NewProvider builds the configured provider, or nil when classification is
// disabled (empty provider name).
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
