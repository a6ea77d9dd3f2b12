package health

import "context"

// LLMChecker verifies the external model API is reachable.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}
