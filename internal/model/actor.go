package model

import "context"

// Actor identifies who is performing the current request. The auth
// middleware stores it on the request context; services read it when they
// emit audit events.
type Actor struct {
	Name      string
	IP        string
	Scope     string
	RequestID string
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the request actor, or a zero Actor for internal
// callers such as scheduled jobs.
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorContextKey{}).(Actor); ok {
		return actor
	}
	return Actor{Name: "system"}
}
