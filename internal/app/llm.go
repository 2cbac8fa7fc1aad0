package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llm"
)

// initModels создаёт embedder и generator для выбранного провайдера.
// Уже заданные через опции не трогает.
func (a *App) initModels() error {
	provider := strings.ToLower(a.cfg.Provider)

	if a.embedder == nil {
		e, err := embedding.New(embedding.Config{
			Provider:  provider,
			APIKey:    a.cfg.OpenAIKey,
			Model:     a.cfg.EmbedModel,
			BaseURL:   a.cfg.OpenAIURL,
			OllamaURL: a.cfg.OllamaURL,
		})
		if err != nil {
			return fmt.Errorf("embedding provider: %w", err)
		}
		a.embedder = e
	}

	if a.generator == nil {
		llmCfg := llm.Config{
			URL:       a.cfg.OpenAIURL,
			Key:       a.cfg.OpenAIKey,
			Model:     a.cfg.ChatModel,
			MaxTokens: a.cfg.MaxTokens,
		}
		if provider == config.ProviderOllama {
			// OpenAI-compatible endpoint of Ollama
			llmCfg.URL = strings.TrimRight(a.cfg.OllamaURL, "/") + "/v1"
			llmCfg.Key = ""
		}
		a.generator = llm.New(llmCfg)
	}
	return nil
}

// ensureProvider checks that Ollama is running and has both models.
// Nothing to check for OpenAI: the key was validated with the config.
func (a *App) ensureProvider(ctx context.Context) error {
	if !strings.EqualFold(a.cfg.Provider, config.ProviderOllama) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimRight(a.cfg.OllamaURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not running or not reachable at %s: %w", a.cfg.OllamaURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s returned status %d", a.cfg.OllamaURL, resp.StatusCode)
	}

	var tags struct {
		Models []ollamaModel `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode ollama tags: %w", err)
	}

	for _, model := range []string{a.cfg.ChatModel, a.cfg.EmbedModel} {
		if !hasModel(tags.Models, model) {
			return fmt.Errorf("model %s not found in ollama, run `ollama pull %s`", model, model)
		}
		a.log.Info("model is available", "model", model)
	}
	return nil
}

type ollamaModel struct {
	Name string `json:"name"`
}

func hasModel(models []ollamaModel, want string) bool {
	for _, m := range models {
		// "llama3" matches "llama3:latest"
		if m.Name == want || strings.TrimSuffix(m.Name, ":latest") == want {
			return true
		}
	}
	return false
}
