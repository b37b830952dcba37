// Package middleware exposes the net/http adapter for the jwtgate decision
// engine.
//
// # Guards
//
//   - [Gate] — evaluates every request and either passes it through, attaches
//     the resolved entity to the context, or answers 401.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Gate calls. It does NOT make
// gating decisions itself — classification, credential verification, and
// entity resolution all happen in jwtgate.Gate.Evaluate.
//
// # What this package must NOT do
//
//   - Parse credentials or tokens directly (delegates to the Gate).
//   - Write failure detail into responses (401 bodies stay opaque).
package middleware
