package classify

import "context"

// Classifier is the external classification capability. Implementations
// send the query to a remote model and return its raw text completion.
// Errors and timeouts are expected and degrade to the local parser.
type Classifier interface {
	Classify(ctx context.Context, query string) (string, error)
}
