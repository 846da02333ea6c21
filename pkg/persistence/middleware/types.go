package middleware

import "github.com/aretw0/greeter/pkg/ports"

// Middleware allows wrapping a GreetingRepository to add behavior.
type Middleware func(ports.GreetingRepository) ports.GreetingRepository

// Chain wraps repo so that the first middleware is the outermost.
func Chain(repo ports.GreetingRepository, mws ...Middleware) ports.GreetingRepository {
	for i := len(mws) - 1; i >= 0; i-- {
		repo = mws[i](repo)
	}
	return repo
}
