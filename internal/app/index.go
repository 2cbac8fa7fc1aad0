package app

import (
	"context"
	"path/filepath"

	"docqa/internal/chunker"
	"docqa/internal/embedding"
	"docqa/internal/loader"
	"docqa/internal/textnorm"
	"docqa/internal/vectorindex"
)

// indexDocuments загружает PDF, нормализует и режет страницы на чанки,
// отбрасывает короткие и строит векторный индекс. Индекс строится заново
// при каждом запуске.
func (a *App) indexDocuments(ctx context.Context, emb embedding.Embedder) error {
	files, err := a.loader.Load(ctx)
	if err != nil {
		return &StartupError{Stage: StageLoad, Err: err}
	}

	chunks, err := a.splitFiles(files)
	if err != nil {
		return &StartupError{Stage: StageSplit, Err: err}
	}

	kept := chunker.FilterShort(chunks, a.cfg.MinChunkChars)
	a.log.Info("documents split",
		"files", len(files),
		"chunks", len(chunks),
		"dropped_short", len(chunks)-len(kept),
	)

	idx, err := vectorindex.Build(ctx, kept, emb, vectorindex.Options{
		Concurrency: a.cfg.EmbedConcurrency,
		Logger:      a.log,
	})
	if err != nil {
		return &StartupError{Stage: StageIndex, Err: err}
	}
	a.index = idx

	a.updateMetadata(files, kept)
	return nil
}

func (a *App) splitFiles(files []loader.File) ([]chunker.Chunk, error) {
	c, err := chunker.NewFactory(chunker.Config{
		MaxChunkSize: a.cfg.ChunkSize,
		Overlap:      a.cfg.ChunkOverlap,
	}).GetChunkerByMethod(a.cfg.ChunkMethod)
	if err != nil {
		return nil, err
	}

	var all []chunker.Chunk
	for _, f := range files {
		for _, page := range f.Pages {
			page.Text = textnorm.Normalize(page.Text)
			chunks, err := c.Chunk(page)
			if err != nil {
				return nil, err
			}
			all = append(all, chunks...)
		}
	}
	return all, nil
}

// updateMetadata stores one manifest entry per file; chunk counts are taken
// after short chunks were dropped.
func (a *App) updateMetadata(files []loader.File, chunks []chunker.Chunk) {
	perSource := make(map[string]int, len(files))
	for _, ch := range chunks {
		perSource[ch.Metadata.Source]++
	}

	infos := make([]FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, FileInfo{
			Path:         f.Path,
			Size:         f.Size,
			LastModified: f.ModTime,
			Pages:        f.PageCount,
			Chunks:       perSource[f.Path],
		})
	}

	dataPath, err := filepath.Abs(a.cfg.DataDir)
	if err != nil {
		dataPath = a.cfg.DataDir
	}

	a.mu.Lock()
	a.metadata = &Metadata{Files: infos, DataPath: dataPath}
	a.mu.Unlock()
}
