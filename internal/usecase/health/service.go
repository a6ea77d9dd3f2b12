// Package health reports service readiness: catalog loaded and, when
// probed, LLM reachability. The LLM being down does not fail readiness —
// the pipeline degrades to local fallbacks by design of the caller.
package health

import (
	"context"
)

// Status is the health report.
type Status struct {
	Healthy      bool   `json:"healthy"`
	CatalogSize  int    `json:"catalog_size"`
	LLMAvailable bool   `json:"llm_available"`
	Detail       string `json:"detail,omitempty"`
}

// Service checks readiness.
type Service struct {
	catalogSize int
	llm         LLMChecker
}

// New creates a health service. llm may be nil when no checker is wired.
func New(catalogSize int, llm LLMChecker) *Service {
	return &Service{catalogSize: catalogSize, llm: llm}
}

// Check reports readiness. The service is healthy as long as the catalog
// has products; LLM availability is informational.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{
		Healthy:     s.catalogSize > 0,
		CatalogSize: s.catalogSize,
	}
	if !st.Healthy {
		st.Detail = "catalog is empty"
	}

	if s.llm != nil {
		if err := s.llm.HealthCheck(ctx); err != nil {
			st.LLMAvailable = false
			if st.Detail == "" {
				st.Detail = "llm unreachable: " + err.Error()
			}
		} else {
			st.LLMAvailable = true
		}
	}
	return st
}
