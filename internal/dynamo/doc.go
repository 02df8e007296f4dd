// Package dynamo provides the simulation primitives shared by the reactor
// model and the integrators.
//
// The package defines:
//
//   - [State]: flat state vector
//   - [System]: right hand side dX/dt = f(X, t) that may fail
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [Simulator]: drives a system over a reporting grid, committing each
//     accepted grid point
//   - [Ensemble]: runs independently built simulations in parallel
//
// # Example
//
//	sys, _ := reactor.New(cfg)
//	sim := dynamo.New(sys, integrators.NewRK45(), log)
//	result, _ := sim.Run(ctx, sys.InitialState(), runCfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Ensemble builds a fresh
// simulator and system per run so that no entity is shared between
// goroutines.
package dynamo
