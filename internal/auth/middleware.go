package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims mirrors the session token issued by the identity provider. The
// role lives under public metadata.
type Claims struct {
	jwt.RegisteredClaims
	Metadata struct {
		Role string `json:"role"`
	} `json:"metadata"`
}

type Config struct {
	Secret []byte
	Issuer string
	// AllowHeaders accepts X-User-ID and X-User-Role without a token. Only
	// for local development.
	AllowHeaders bool
}

// Verifier turns bearer tokens into request contexts.
type Verifier struct {
	cfg Config
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

func (v *Verifier) Verify(tokenStr string) (RequestContext, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.cfg.Secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return RequestContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return RequestContext{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	return RequestContext{
		UserID: claims.Subject,
		Role:   ResolveRole(claims.Metadata.Role),
	}, nil
}

func (v *Verifier) fromRequest(r *http.Request) (RequestContext, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if v.cfg.AllowHeaders {
			if id := r.Header.Get("X-User-ID"); id != "" {
				return RequestContext{UserID: id, Role: ResolveRole(r.Header.Get("X-User-Role"))}, nil
			}
		}
		return RequestContext{}, ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return RequestContext{}, ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(parts[1]))
}

// Middleware authenticates every request and stores the RequestContext.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, err := v.fromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
	})
}

// RequireRole rejects callers holding none of roles.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", ErrMissingToken.Error())
				return
			}
			if !rc.Is(roles...) {
				names := make([]string, len(roles))
				for i, role := range roles {
					names[i] = string(role)
				}
				writeError(w, http.StatusForbidden, "forbidden",
					fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "details": details})
}
