// Package jwtgate provides request-gatekeeping for Go HTTP services: each inbound
// request is classified against static, ignored, and whitelisted route rules, and
// everything else must present a bearer credential that resolves to a registered
// entity (a user, teacher, account row, etc.) looked up through a pluggable
// registry.
//
// The package is designed for concurrent server workloads: Gate methods are safe to
// call from multiple goroutines after initialization through [Builder.Build]. All
// per-request resolution state travels through the request's context.Context; the
// Gate itself holds no mutable request state.
//
// # Architecture boundaries
//
// jwtgate is the public surface. It exposes [Gate], [Builder], [Config], the entity
// registry types ([Descriptor], [LookupFunc]), and the [AuthStrategy] contract.
// The signed-token codec lives in the token subpackage, HTTP adapters in
// middleware, and provider strategies in oauth2.
//
// # What this package must NOT do
//
//   - Serve or route HTTP itself. Dispatch belongs to the host framework; the
//     optional [RouteSource] collaborator only answers "is this route mapped at
//     all" so unmapped paths fall through to the framework's own 404.
//   - Talk to a database. Entity lookups go through [LookupFunc] values supplied
//     at registration time.
//   - Leak verification failure detail to clients. Every rejection is an opaque
//     401; branch detail goes to the logger and audit sink only.
package jwtgate
