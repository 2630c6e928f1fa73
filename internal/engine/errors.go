package engine

import "fmt"

// Error is a search-engine failure: a non-2xx reply from the query endpoint
// or a transport error talking to it. It is fatal to the request — without
// engine results there is nothing to enrich or return.
type Error struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search engine: %v", e.Err)
	}
	return fmt.Sprintf("search engine: status %d: %s", e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}
