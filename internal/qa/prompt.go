package qa

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docqa/internal/chunker"
)

const promptHeader = "Use the following pieces of context to answer the question at the end. " +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer."

// BuildPrompt собирает user-сообщение: контекст из чанков, затем вопрос.
// maxContextChars > 0 ограничивает суммарный объём контекста; чанк, который
// не влезает целиком, обрезается, остальные отбрасываются.
func BuildPrompt(query string, chunks []chunker.Chunk, maxContextChars int) string {
	var buf strings.Builder

	buf.WriteString(promptHeader)
	buf.WriteString("\n\n")

	used := 0
	for i, ch := range chunks {
		text := ch.Text
		if maxContextChars > 0 {
			left := maxContextChars - used
			if left <= 0 {
				break
			}
			if utf8.RuneCountInString(text) > left {
				text = string([]rune(text)[:left])
			}
		}
		used += utf8.RuneCountInString(text)

		fmt.Fprintf(&buf, "[%d] (%s, p.%d)\n%s\n\n", i+1, ch.Metadata.Source, ch.Metadata.Page, text)
	}

	fmt.Fprintf(&buf, "Question: %s\nHelpful Answer:", strings.TrimSpace(query))

	return buf.String()
}
