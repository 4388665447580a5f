package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"grunnlag/pkg/requestcontext"
)

// Claims are the token claims the service relies on. Caseworker tokens carry
// NAVident; machine tokens carry only azp_name and the "system" role.
type Claims struct {
	NAVident string   `json:"NAVident,omitempty"`
	AzpName  string   `json:"azp_name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Validator checks HMAC-signed bearer tokens.
type Validator struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewValidator constructs a validator. Empty issuer/audience skip those checks.
func NewValidator(signingKey []byte, issuer, audience string) *Validator {
	return &Validator{key: signingKey, issuer: issuer, audience: audience, leeway: 30 * time.Second}
}

// ValidateToken parses and verifies a token and returns its claims.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	if claims.NAVident == "" && claims.AzpName == "" {
		return nil, errors.New("token has neither NAVident nor azp_name")
	}
	return claims, nil
}

// Actor maps validated claims to the request actor.
func (c *Claims) Actor() requestcontext.Actor {
	if c.NAVident != "" {
		return requestcontext.Actor{Ident: c.NAVident}
	}
	return requestcontext.Actor{Ident: c.AzpName, IsSystem: true}
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor in the request context for handlers to pass on explicitly.
func RequireAuth(validator *Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
