package middleware

import (
	"net/http"

	jwtgate "github.com/joegasewicz/jwtgate"
)

// Gate wraps next with the jwtgate decision engine. Exempt requests pass
// through untouched; authorized requests continue with the resolved entity
// (and any strategy access token) attached to the request context; everything
// else is answered with an opaque 401 and next is never invoked.
func Gate(gate *jwtgate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			d := gate.Evaluate(r)
			switch d.Outcome {
			case jwtgate.OutcomePass:
				next.ServeHTTP(w, r)
			case jwtgate.OutcomeAuthorized:
				ctx := jwtgate.WithEntity(r.Context(), d.TypeTag, d.Entity)
				if d.AccessToken != "" {
					ctx = jwtgate.WithAccessToken(ctx, d.AccessToken)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			default:
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			}
		})
	}
}
