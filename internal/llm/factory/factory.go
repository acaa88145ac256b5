package factory

import (
	"context"
	"fmt"

	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/llm"
	"github.com/newthinker/signalhub/internal/llm/claude"
	"github.com/newthinker/signalhub/internal/llm/gemini"
	"github.com/newthinker/signalhub/internal/llm/ollama"
	"github.com/newthinker/signalhub/internal/llm/openai"
)

// New creates an LLM provider based on configuration. A hosted provider
// without an API key fails with core.ErrConfigMissing.
func New(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, missingKey("gemini", "GEMINI_API_KEY")
		}
		return gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, "")
	case "claude":
		if cfg.Claude.APIKey == "" {
			return nil, missingKey("claude", "ANTHROPIC_API_KEY")
		}
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, missingKey("openai", "OPENAI_API_KEY")
		}
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}

func missingKey(provider, env string) error {
	return core.WrapError(core.ErrConfigMissing,
		fmt.Errorf("%s API key not set (llm.%s.api_key or %s)", provider, provider, env))
}
