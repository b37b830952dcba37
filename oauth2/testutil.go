package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	jwtgate "github.com/joegasewicz/jwtgate"
)

// Scope controls how long a stubbed identity stays registered on a
// TestStrategy.
type Scope string

const (
	// ScopeFunction identities are removed by the first TearDown call.
	ScopeFunction Scope = "function"
	// ScopeApplication identities survive until TearDown(ScopeApplication).
	ScopeApplication Scope = "application"
)

// TestStrategy is an in-memory [jwtgate.AuthStrategy] for application tests:
// no network, no provider. Register an identity with CreateTestHeaders, send
// the returned headers with the test request, and Authorize will verify the
// bearer value against the registered set.
type TestStrategy struct {
	header  string
	typeTag string

	mu       sync.Mutex
	metadata map[string]Scope
}

// NewTestStrategy builds a strategy resolving identities against typeTag'
// entities, using the default provider header.
func NewTestStrategy(typeTag string) *TestStrategy {
	return &TestStrategy{
		header:   defaultHeader,
		typeTag:  typeTag,
		metadata: make(map[string]Scope),
	}
}

// HeaderName implements [jwtgate.AuthStrategy].
func (s *TestStrategy) HeaderName() string { return s.header }

// DefaultTypeTag implements [jwtgate.AuthStrategy].
func (s *TestStrategy) DefaultTypeTag() string { return s.typeTag }

// CreateTestHeaders registers email as an authorized identity and returns the
// headers a test request should carry.
func (s *TestStrategy) CreateTestHeaders(email string, scope Scope) http.Header {
	if scope == "" {
		scope = ScopeFunction
	}

	s.mu.Lock()
	s.metadata[email] = scope
	s.mu.Unlock()

	h := http.Header{}
	h.Set(s.header, "Bearer "+email)
	return h
}

// Authorize treats the bearer value as the identity email and verifies it was
// registered via CreateTestHeaders.
func (s *TestStrategy) Authorize(_ context.Context, token string) (jwtgate.Identity, error) {
	s.mu.Lock()
	_, ok := s.metadata[token]
	s.mu.Unlock()

	if !ok {
		return jwtgate.Identity{}, fmt.Errorf("no test identity registered for %q", token)
	}
	return jwtgate.Identity{Value: token}, nil
}

// TearDown removes function-scoped identities; TearDown(ScopeApplication)
// removes everything.
func (s *TestStrategy) TearDown(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope == ScopeApplication {
		s.metadata = make(map[string]Scope)
		return
	}
	for email, sc := range s.metadata {
		if sc != ScopeApplication {
			delete(s.metadata, email)
		}
	}
}
