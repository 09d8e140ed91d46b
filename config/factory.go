package config

import (
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/hupe1980/agentkit/model"
	"github.com/hupe1980/agentkit/model/anthropic"
	"github.com/hupe1980/agentkit/model/langchain"
	"github.com/hupe1980/agentkit/model/openai"
)

// ErrUnknownProvider is returned by DefaultFactory for unsupported providers.
var ErrUnknownProvider = errors.New("unknown model provider")

// Provider names understood by DefaultFactory.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// DefaultFactory builds models for the openai (default, also any
// OpenAI-compatible endpoint via base_url), anthropic and ollama providers.
func DefaultFactory(_ string, mc ModelConfig) (model.Model, error) {
	switch strings.ToLower(mc.Provider) {
	case "", ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if mc.Model != "" {
				o.Model = mc.Model
			}
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
		}), nil
	case ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Model != "" {
				o.Model = anthropicsdk.Model(mc.Model)
			}
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
		}), nil
	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(mc.Model)}
		if mc.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(mc.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
		return langchain.NewModel(llm, func(o *langchain.Options) {
			o.Model = mc.Model
			o.Provider = ProviderOllama
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, mc.Provider)
	}
}
