// Package domain holds the core types of the cartwise assistant: catalog
// products, structured queries, per-conversation sessions, and the error
// taxonomy shared across the pipeline.
package domain

import (
	"sort"
	"strings"
)

// Product is one catalog entry. Immutable for the lifetime of a session;
// owned by the catalog provider and never written back.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Price    float64  `json:"price"`
	Category string   `json:"category"`
	Features string   `json:"features"`
	Tags     []string `json:"tags,omitempty"`
	Zone     string   `json:"zone,omitempty"`
}

// CombinedText returns the lower-cased searchable text of the product:
// name, features, and tags joined with spaces.
func (p Product) CombinedText() string {
	parts := []string{p.Name, p.Features}
	parts = append(parts, p.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// HealthText returns the lower-cased features-plus-tags text used by
// health and nutrition filters (name excluded, matching filter semantics).
func (p Product) HealthText() string {
	parts := append([]string{p.Features}, p.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Vocabulary is a read-only view over the catalog used for fuzzy
// correction and category resolution. Built once at catalog load.
type Vocabulary struct {
	Categories       map[string]struct{}
	SortedCategories []string // deterministic scan order over Categories
	Brands           []string
	Names            []string
}

// BuildVocabulary derives the vocabulary from loaded products.
// All entries are lower-cased; brands are de-duplicated.
func BuildVocabulary(products []Product) Vocabulary {
	v := Vocabulary{Categories: make(map[string]struct{})}
	seenBrands := make(map[string]struct{})
	for _, p := range products {
		cat := strings.ToLower(p.Category)
		if cat != "" {
			v.Categories[cat] = struct{}{}
		}
		brand := strings.ToLower(p.Brand)
		if brand != "" {
			if _, ok := seenBrands[brand]; !ok {
				seenBrands[brand] = struct{}{}
				v.Brands = append(v.Brands, brand)
			}
		}
		if p.Name != "" {
			v.Names = append(v.Names, strings.ToLower(p.Name))
		}
	}
	for cat := range v.Categories {
		v.SortedCategories = append(v.SortedCategories, cat)
	}
	sort.Strings(v.SortedCategories)
	return v
}

// Terms returns brands and product names merged, for lexical correction.
func (v Vocabulary) Terms() []string {
	terms := make([]string, 0, len(v.Brands)+len(v.Names))
	terms = append(terms, v.Brands...)
	terms = append(terms, v.Names...)
	return terms
}
