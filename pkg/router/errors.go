package router

import (
	"fmt"
	"strings"
)

// Attempt records one failed vendor call.
type Attempt struct {
	Provider string
	Err      error
}

// RoutingError aggregates the failures of both vendors. It is returned only
// when every permitted attempt failed; a successful fallback is not an error.
type RoutingError struct {
	Attempts []Attempt
}

// Error implements the error interface, naming every provider and its
// individual failure.
func (e *RoutingError) Error() string {
	if len(e.Attempts) == 0 {
		return "router: no attempts recorded"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Provider, a.Err)
	}
	return fmt.Sprintf("router: all %d providers failed (%s)", len(e.Attempts), strings.Join(parts, "; "))
}

// Unwrap returns the last attempt's error.
func (e *RoutingError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// ProviderNames lists the providers that failed.
func (e *RoutingError) ProviderNames() []string {
	names := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		names[i] = a.Provider
	}
	return names
}
