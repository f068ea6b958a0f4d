package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"hirehub.dev/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var errMissingToken = errors.New("missing bearer token")

// identityHandler serves a request whose caller has been authenticated.
type identityHandler func(w http.ResponseWriter, r *http.Request, caller auth.Identity)

// protected validates the bearer token and hands the fresh identity to next.
func (a *API) protected(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="hirehub"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		caller, err := a.authority.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="hirehub", error="invalid_token"`)
			}
			a.handleError(w, r, err)
			return
		}
		ctx := auth.ContextWithIdentity(r.Context(), caller)
		ctx = auth.ContextWithToken(ctx, token)
		next(w, r.WithContext(ctx), caller)
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingToken
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
