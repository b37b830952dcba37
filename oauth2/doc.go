// Package oauth2 implements provider-backed auth strategies for jwtgate.
//
// [Google] verifies in-flight OAuth 2.0 access tokens against the userinfo
// endpoint and exchanges authorization codes for access tokens. A Redis
// [TokenCache] can memoize verification results for the token lifetime.
// [TestStrategy] stubs an authorized identity for application tests without a
// network.
package oauth2
