package app

import (
	"context"
	"sort"

	"docqa/internal/qa"
)

// SearchResult - результат векторного поиска
type SearchResult struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Similarity float32 `json:"similarity"`
}

// Ask отвечает на один вопрос через QA-пайплайн
func (a *App) Ask(ctx context.Context, query string) (*qa.Response, error) {
	if a.pipeline == nil {
		return nil, errNotInitialized
	}
	return a.pipeline.Answer(ctx, query)
}

// Search возвращает найденные чанки с оценками, без генерации ответа
func (a *App) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if a.retriever == nil {
		return nil, errNotInitialized
	}
	hits, err := a.retriever.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			Content:    h.Chunk.Text,
			Source:     h.Chunk.Metadata.Source,
			Page:       h.Chunk.Metadata.Page,
			Similarity: h.Similarity,
		})
	}
	return results, nil
}

// GroupBySource группирует результаты по файлу, страницы по возрастанию
func GroupBySource(results []SearchResult) map[string][]SearchResult {
	grouped := make(map[string][]SearchResult)
	for _, r := range results {
		source := r.Source
		if source == "" {
			source = "Unknown"
		}
		grouped[source] = append(grouped[source], r)
	}
	for _, rs := range grouped {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Page < rs[j].Page })
	}
	return grouped
}
