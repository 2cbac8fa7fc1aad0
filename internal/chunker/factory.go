package chunker

import (
	"fmt"
	"strings"
)

// Factory создаёт chunker на основе метода
type Factory struct {
	config Config
}

// NewFactory создаёт новую фабрику chunker'ов
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// GetChunkerByMethod возвращает chunker по названию метода.
// Пустой метод означает recursive.
func (f *Factory) GetChunkerByMethod(method string) (Chunker, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", "recursive", "text":
		return NewRecursiveChunker(f.config), nil
	case "size", "simple", "fixed":
		return NewTextChunker(f.config), nil
	default:
		return nil, fmt.Errorf("unknown chunking method: %s", method)
	}
}
