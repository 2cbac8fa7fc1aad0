package chunker

// TextChunker режет текст на окна фиксированного размера с overlap,
// не обращая внимания на границы слов
type TextChunker struct {
	config Config
}

// NewTextChunker создаёт новый simple chunker
func NewTextChunker(config Config) *TextChunker {
	return &TextChunker{config: config.normalized()}
}

func (s *TextChunker) Name() string {
	return "size"
}

func (s *TextChunker) Chunk(doc Document) ([]Chunk, error) {
	var chunks []Chunk
	runes := []rune(doc.Text)
	step := s.config.MaxChunkSize - s.config.Overlap

	for i := 0; i < len(runes); i += step {
		end := i + s.config.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		ch := CreateChunk(string(runes[i:end]), doc.Metadata, len(chunks))
		if ch.Text != "" {
			chunks = append(chunks, ch)
		}

		if end >= len(runes) {
			break
		}
	}

	return chunks, nil
}
