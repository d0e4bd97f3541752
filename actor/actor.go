package actor

// Actor is an alias for "any".
// It's included for convenience: any object that declares
// convention-named handler methods can act as an actor.
type Actor = any

// Base is the default root boundary type for handler discovery.
// Actor implementations embed Base; scanning for handler methods stops
// at it and never walks past it.
type Base struct{}

// Factory is a function that initializes a new actor.
type Factory func(actorID string) Actor
