package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/discussion-platform/internal/platform/api"
)

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTVerifier accepts HS256 tokens signed with Secret that carry an expiry
// and a subject. A non-empty Issuer must match the iss claim.
type JWTVerifier struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	if len(v.Secret) == 0 {
		return nil, errors.New("missing jwt secret")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.Leeway))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser rejects requests without a valid bearer token and injects the
// token's subject and role into the request context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				api.Unauthorized(w, r, api.CodeUnauthorized, "Authentication credentials were not provided.")
				return
			}
			claims, err := verifier.Parse(token)
			if err != nil {
				api.Unauthorized(w, r, api.CodeInvalidToken, "Invalid or expired token.")
				return
			}
			ctx := WithUserID(r.Context(), claims.Subject)
			if role := strings.TrimSpace(claims.Role); role != "" {
				ctx = WithRole(ctx, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
