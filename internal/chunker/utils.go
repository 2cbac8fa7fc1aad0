package chunker

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CreateChunk создаёт чанк с автоматической генерацией ID.
// position - порядковый номер чанка внутри документа, чтобы одинаковый текст
// на разных страницах не давал одинаковых ID
func CreateChunk(text string, meta Metadata, position int) Chunk {
	text = strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s#%d#%d#%s", meta.Source, meta.Page, position, text)))

	return Chunk{
		ID:         fmt.Sprintf("%x", hash[:8]),
		Text:       text,
		Metadata:   meta,
		CharLength: utf8.RuneCountInString(text),
	}
}

// GetWordTail возвращает хвост длиной не больше n символов, начинающийся с
// границы слова. Если в хвосте нет ни одной границы, режет по символам.
func GetWordTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	start := len(runes) - n
	if unicode.IsSpace(runes[start-1]) {
		return string(runes[start:])
	}
	for i := start; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return string(runes[i+1:])
		}
	}
	return string(runes[start:])
}

// FilterShort отбрасывает чанки, у которых после TrimSpace осталось minChars
// символов или меньше (остатки колонтитулов и т.п.)
func FilterShort(chunks []Chunk, minChars int) []Chunk {
	kept := chunks[:0:0]
	for _, ch := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(ch.Text)) > minChars {
			kept = append(kept, ch)
		}
	}
	return kept
}
