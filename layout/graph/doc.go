// Package graph builds the declaration graph the layout solver consumes.
//
// A parser (external to this module) produces one Stmt per declaration;
// the Builder ingests them in source order, validates attributes, and
// produces an immutable Program. Anchors are non-owning relations: a
// declaration names another declaration, a global base, or an absolute
// address, and the reference is resolved by table lookup once per solve.
// Forward references are legal - TopoOrder produces a dependency-respecting
// order regardless of source order, and reports cycles instead of hanging.
package graph
