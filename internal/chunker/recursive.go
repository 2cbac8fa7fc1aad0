package chunker

import (
	"strings"
	"unicode/utf8"
)

// Разделители от крупных к мелким: абзац, строка, предложение, слово.
// Если ни один не встретился, кусок режется по символам.
var defaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// RecursiveChunker собирает окна не длиннее MaxChunkSize из кусков, нарезанных
// по самым крупным доступным границам. Каждое следующее окно начинается с
// хвоста предыдущего (не длиннее Overlap, по границе слова).
type RecursiveChunker struct {
	config     Config
	separators []string
}

// NewRecursiveChunker создаёт chunker с разделителями по умолчанию
func NewRecursiveChunker(config Config) *RecursiveChunker {
	return &RecursiveChunker{
		config:     config.normalized(),
		separators: defaultSeparators,
	}
}

func (r *RecursiveChunker) Name() string {
	return "recursive"
}

func (r *RecursiveChunker) Chunk(doc Document) ([]Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	size, overlap := r.config.MaxChunkSize, r.config.Overlap
	// куски не длиннее size-overlap: хвост плюс любой кусок всегда влезают в окно
	pieces := splitRecursive(doc.Text, r.separators, size-overlap)

	var chunks []Chunk
	var window strings.Builder
	windowLen := 0

	emit := func() {
		ch := CreateChunk(window.String(), doc.Metadata, len(chunks))
		if ch.Text != "" {
			chunks = append(chunks, ch)
		}
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if windowLen > 0 && windowLen+pieceLen > size {
			emit()

			tail := GetWordTail(window.String(), overlap)
			window.Reset()
			window.WriteString(tail)
			windowLen = utf8.RuneCountInString(tail)
		}
		window.WriteString(piece)
		windowLen += pieceLen
	}

	if windowLen > 0 {
		emit()
	}

	return chunks, nil
}

// splitRecursive режет text на куски не длиннее limit символов. Разделитель
// остаётся в конце куска, так что конкатенация кусков даёт исходный текст.
func splitRecursive(text string, separators []string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	for i, sep := range separators {
		if !strings.Contains(text, sep) {
			continue
		}
		var out []string
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			out = append(out, splitRecursive(part, separators[i+1:], limit)...)
		}
		return out
	}

	return splitRunes(text, limit)
}

func splitRunes(text string, limit int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
