package domain

import "strings"

// Preferences accumulates what the conversation has revealed about the
// user: a price ceiling, preferred brands (duplicate-free, insertion
// ordered), and preferred tags.
type Preferences struct {
	PriceRange      any      `json:"price_range,omitempty"`
	PreferredBrands []string `json:"preferred_brands,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// AddBrand records a preferred brand, skipping duplicates.
func (p *Preferences) AddBrand(brand string) {
	for _, b := range p.PreferredBrands {
		if b == brand {
			return
		}
	}
	p.PreferredBrands = append(p.PreferredBrands, brand)
}

// SessionContext is the per-conversation state consumed by classification,
// matching, and composition for follow-up resolution. One instance per
// conversation; single writer; never rolled back.
type SessionContext struct {
	ID          string          `json:"id"`
	LastQuery   *StructuredQuery `json:"last_query,omitempty"`
	Preferences Preferences     `json:"preferences"`
}

// Remember stores the resolved query and folds its filters into the
// accumulated preferences.
func (s *SessionContext) Remember(q StructuredQuery) {
	stored := q.Clone()
	s.LastQuery = &stored

	if price, ok := q.Filters["price"]; ok {
		s.Preferences.PriceRange = price
	}
	switch brand := q.Filters["brand"].(type) {
	case string:
		s.Preferences.AddBrand(brand)
	case []any:
		for _, b := range brand {
			if bs, ok := b.(string); ok {
				s.Preferences.AddBrand(bs)
			}
		}
	case []string:
		for _, b := range brand {
			s.Preferences.AddBrand(b)
		}
	}
	if tags, ok := q.Filters["tags"].(string); ok && tags != "" {
		s.Preferences.Tags = splitTags(tags)
	}
}

// LastCategory returns the category of the previous resolved query, or "".
func (s *SessionContext) LastCategory() string {
	if s.LastQuery == nil {
		return ""
	}
	return s.LastQuery.Category
}

func splitTags(csv string) []string {
	var out []string
	for _, tag := range strings.Split(csv, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
