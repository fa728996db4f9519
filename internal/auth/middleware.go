package auth

import (
	"net/http"
	"strings"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
)

type Verifier interface {
	Verify(raw string) (*Principal, error)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// Required rejects requests without a valid bearer token with the 401
// envelope and stores the principal in the request context otherwise.
func Required(v Verifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			render.Error(w, r, apperr.ErrUnauthenticated)
			return
		}
		p, err := v.Verify(tok)
		if err != nil {
			render.Error(w, r, apperr.ErrUnauthenticated)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}
