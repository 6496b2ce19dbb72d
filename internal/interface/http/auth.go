package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER AUTHENTICATION
// Bearer tokens signed with HS256 carry the member id. Requests without a
// token are anonymous; read endpoints serve them and write endpoints reject
// them with 401.
// ══════════════════════════════════════════════════════════════════════════════

// MemberClaims are the claims of a member token.
type MemberClaims struct {
	MemberID int64 `json:"member_id"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies member tokens.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an authenticator. An empty issuer skips the
// issuer check.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// IssueToken signs a token for memberID valid for ttl.
func (a *Authenticator) IssueToken(memberID shared.ID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := MemberClaims{
		MemberID: memberID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(memberID, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the member it was issued for.
func (a *Authenticator) Verify(tokenString string) (shared.ID, error) {
	claims := &MemberClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, shared.WrapError("member", "Authenticate", shared.ErrUnauthorized, "invalid token", err)
	}
	if !token.Valid {
		return 0, shared.NewDomainError("member", "Authenticate", shared.ErrUnauthorized, "invalid token")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return 0, shared.NewDomainError("member", "Authenticate", shared.ErrUnauthorized, "unexpected token issuer")
	}
	if claims.MemberID <= 0 {
		return 0, shared.NewDomainError("member", "Authenticate", shared.ErrUnauthorized, "token carries no member")
	}
	return claims.MemberID, nil
}

var errBearerRequired = errors.New("bearer token required")

// bearerToken extracts the token of an Authorization header. ok is false
// when the header is absent.
func bearerToken(r *http.Request) (token string, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	token = strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", true, errBearerRequired
	}
	return token, true, nil
}

// authMiddleware attaches the verified member to the request context.
// A present but invalid token is rejected even on read endpoints.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearerToken(r)
		if !present || s.deps.Auth == nil {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			writeError(w, r, shared.WrapError("member", "Authenticate", shared.ErrUnauthorized, err.Error(), err))
			return
		}

		memberID, err := s.deps.Auth.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyMemberID, memberID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// memberFrom returns the authenticated member, 0 for anonymous requests.
func memberFrom(ctx context.Context) shared.ID {
	if id, ok := ctx.Value(contextKeyMemberID).(shared.ID); ok {
		return id
	}
	return 0
}
