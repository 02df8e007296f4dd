// Package thermal models a network of lumped control volumes exchanging
// heat by conduction, convection and advection.
//
// Each [Component] owns a temperature history on a fixed time grid. Every
// index is written once, by the driver after it accepts a step; trial states
// are evaluated through a [View] and never touch the history. Edges are
// directional: a component only knows the heat flowing into itself, and the
// reverse edge must be added explicitly on the neighbor. [Network.Validate]
// reports edges whose reverse is missing.
//
// Spherical shell components can be split into sub-shells with
// [Component.Mesh] and grouped by a [SuperComponent], which wires the
// internal conduction and carries a single boundary edge to the outside.
package thermal
