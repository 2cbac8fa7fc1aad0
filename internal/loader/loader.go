// Package loader reads PDF files from a directory and returns their text
// page by page.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"docqa/internal/chunker"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

var ErrNoDocuments = errors.New("no PDF documents found")

// File is one ingested PDF.
type File struct {
	Path      string
	Size      int64
	ModTime   time.Time
	PageCount int
	Pages     []chunker.Document
}

// Loader returns the documents to index.
type Loader interface {
	Load(ctx context.Context) ([]File, error)
}

// DirLoader loads every *.pdf in Dir. Subdirectories are only visited when
// Recursive is set.
type DirLoader struct {
	Dir         string
	Recursive   bool
	Concurrency int
	Logger      *slog.Logger
}

var pdfcpuOnce sync.Once

// pdfcpu would otherwise create its config directory under the user's home
func initPDFCPU() {
	pdfcpuOnce.Do(api.DisableConfigDir)
}

// List returns the PDF paths under Dir in lexical order.
func (l *DirLoader) List() ([]string, error) {
	info, err := os.Stat(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory: %s is not a directory", l.Dir)
	}

	var paths []string
	err = filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.Dir && !l.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isPDF(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk data directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Load reads all listed files concurrently. The result keeps List order.
// Any unreadable file fails the whole load.
func (l *DirLoader) Load(ctx context.Context) ([]File, error) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}

	paths, err := l.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, l.Dir)
	}
	log.Info("loading documents", "dir", l.Dir, "files", len(paths))

	files := make([]File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Concurrency, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := LoadFile(path)
			if err != nil {
				return err
			}
			log.Debug("document loaded", "path", path, "pages", f.PageCount)
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// LoadFile validates a PDF and extracts the text of each page. Page numbers
// are 1-based.
func LoadFile(path string) (File, error) {
	initPDFCPU()

	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return File{}, fmt.Errorf("invalid PDF %s: %w", path, err)
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to get page count of %s: %w", path, err)
	}

	pages, err := extractPages(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to extract text from %s: %w", path, err)
	}

	return File{
		Path:      path,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		PageCount: pageCount,
		Pages:     pages,
	}, nil
}

func extractPages(path string) (pages []chunker.Document, err error) {
	// ledongthuc/pdf panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, chunker.Document{
			Text:     text,
			Metadata: chunker.Metadata{Source: path, Page: i},
		})
	}
	return pages, nil
}
