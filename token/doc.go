// Package token encodes and decodes the gate's locally signed credential: a
// JWT carrying an entity type tag, a configurable entity-id claim, and a
// day-granularity expiry, with a single fixed signature algorithm per
// configuration.
package token
