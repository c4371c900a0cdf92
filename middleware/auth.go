package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const didContextKey contextKey = "did"

var ErrNoDIDInContext = errors.New("no DID in request context")

// Authenticator verifies HS256 bearer tokens and puts the caller's DID, taken
// from the iss claim, into the request context.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		did, _ := claims["iss"].(string)
		if did == "" {
			unauthorized(w, "token has no issuer")
			return
		}

		ctx := context.WithValue(r.Context(), didContextKey, did)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDIDFromContext returns the authenticated caller's DID.
func GetDIDFromContext(ctx context.Context) (string, error) {
	did, ok := ctx.Value(didContextKey).(string)
	if !ok || did == "" {
		return "", ErrNoDIDInContext
	}
	return did, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`+"\n", message)
}
