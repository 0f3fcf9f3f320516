// Package middleware provides composable wrappers around a RunStore, for
// concerns like encryption at rest and PII masking.
package middleware

import "github.com/agentry-dev/agentry/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain applies middlewares right to left, so the first one in the list is
// the outermost wrapper.
func Chain(store ports.RunStore, middlewares ...Middleware) ports.RunStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
