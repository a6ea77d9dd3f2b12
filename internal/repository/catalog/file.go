package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// FileProvider loads a JSON array of products from disk.
type FileProvider struct {
	path string
}

// NewFileProvider creates a file-backed catalog provider.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Load reads and decodes the catalog file. Products missing a name or
// category are skipped rather than failing the load.
func (f *FileProvider) Load(_ context.Context) ([]domain.Product, error) {
	data, err := os.ReadFile(filepath.Clean(f.path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.path, err)
	}

	var raw []domain.Product
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", f.path, err)
	}

	products := raw[:0]
	for _, p := range raw {
		if p.Name == "" || p.Category == "" {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
