package github

import (
	"encoding/json"
	"fmt"
)

// TransportError is a non-2xx HTTP response on a query. Fatal when it comes
// from a top-level organization/project lookup; per-item callers log and skip.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("github: request failed with status %d: %s", e.StatusCode, e.Body)
}

// GraphQLError is an API-reported error list on an otherwise-200 response.
// The raw payload is kept so the operator sees exactly what the API said.
type GraphQLError struct {
	Errors json.RawMessage
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("github: graphql error: %s", string(e.Errors))
}
