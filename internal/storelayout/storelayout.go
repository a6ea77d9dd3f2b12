// Package storelayout answers "where is <product>" lookups from the
// configured aisle/section/shelf layout.
package storelayout

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// Entry describes one store zone.
type Entry struct {
	Zone    string
	Aisle   string
	Section string
	Shelf   string
}

// Locator resolves products to store locations. Lookup order: exact zone,
// fuzzy zone containment, then category containment against zone and
// section names.
type Locator struct {
	entries []Entry
	catalog []domain.Product
}

// New creates a locator over the layout and catalog.
func New(entries []Entry, catalog []domain.Product) *Locator {
	return &Locator{entries: entries, catalog: catalog}
}

// Locate renders a location answer for the named product. The product is
// found by case-insensitive partial name match.
func (l *Locator) Locate(productName string) string {
	productName = strings.ToLower(strings.TrimSpace(productName))
	var product *domain.Product
	for i := range l.catalog {
		if strings.Contains(strings.ToLower(l.catalog[i].Name), productName) {
			product = &l.catalog[i]
			break
		}
	}
	if product == nil {
		return "Sorry, I couldn't find that product in the store."
	}
	if product.Zone == "" && product.Category == "" {
		return fmt.Sprintf("Sorry, I couldn't determine the location for %s.", product.Name)
	}

	entry := l.findEntry(product.Zone, product.Category)
	if entry == nil {
		return fmt.Sprintf("Sorry, I couldn't find the location for %s.", product.Name)
	}
	return fmt.Sprintf("%s is located in Aisle %s, Section %s, Shelf %s (Zone: %s).",
		product.Name, orNA(entry.Aisle), orNA(entry.Section), orNA(entry.Shelf), orNA(entry.Zone))
}

func (l *Locator) findEntry(zone, category string) *Entry {
	zone = strings.ToLower(zone)
	category = strings.ToLower(category)

	if zone != "" {
		for i := range l.entries {
			if strings.ToLower(l.entries[i].Zone) == zone {
				return &l.entries[i]
			}
		}
		for i := range l.entries {
			entryZone := strings.ToLower(l.entries[i].Zone)
			if entryZone != "" && (strings.Contains(entryZone, zone) || strings.Contains(zone, entryZone)) {
				return &l.entries[i]
			}
		}
	}
	if category != "" {
		for i := range l.entries {
			entryZone := strings.ToLower(l.entries[i].Zone)
			if entryZone != "" && (strings.Contains(entryZone, category) || strings.Contains(category, entryZone)) {
				return &l.entries[i]
			}
		}
		for i := range l.entries {
			section := strings.ToLower(l.entries[i].Section)
			if section != "" && (strings.Contains(section, category) || strings.Contains(category, section)) {
				return &l.entries[i]
			}
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
