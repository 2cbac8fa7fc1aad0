package chunker

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// Metadata описывает происхождение текста: файл и номер страницы (с 1)
type Metadata struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// Document - нормализованный текст одной страницы
type Document struct {
	Text     string
	Metadata Metadata
}

// Chunk представляет единицу текста для векторизации
type Chunk struct {
	ID         string   `json:"id"`          // Уникальный идентификатор (hash)
	Text       string   `json:"text"`        // Текст чанка
	Metadata   Metadata `json:"metadata"`    // Унаследовано от документа без изменений
	CharLength int      `json:"char_length"` // Длина текста в символах
}

// Chunker - интерфейс для всех типов chunker'ов
type Chunker interface {
	// Chunk разбивает документ на чанки
	Chunk(doc Document) ([]Chunk, error)

	// Name возвращает название chunker'а для логирования
	Name() string
}

// Config содержит общие параметры для chunker'ов
type Config struct {
	MaxChunkSize int // Максимальный размер чанка в символах
	Overlap      int // Размер overlap между чанками
}

// normalized подставляет значения по умолчанию и не даёт overlap догнать размер чанка
func (c Config) normalized() Config {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultChunkSize
	}
	if c.Overlap < 0 {
		c.Overlap = DefaultOverlap
	}
	if c.Overlap >= c.MaxChunkSize {
		c.Overlap = c.MaxChunkSize / 4
	}
	return c
}
