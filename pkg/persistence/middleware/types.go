package middleware

import "github.com/aretw0/parley/pkg/ports"

// Middleware allows wrapping a BlackboardStore to add behavior.
type Middleware func(ports.BlackboardStore) ports.BlackboardStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.BlackboardStore, mws ...Middleware) ports.BlackboardStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
