package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized indicates the credential failed validation (signature,
// expiry, missing subject) and the caller must be treated as unauthenticated.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Identity is the validated user bound to a connection for its lifetime.
type Identity struct {
	UserID   string
	Username string
}

// Resolver turns a raw credential into a user identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

// JWTResolver validates HS256 access tokens signed with a shared secret.
type JWTResolver struct {
	secret []byte
	leeway time.Duration
}

// NewJWTResolver constructs a resolver for secret-signed access tokens.
func NewJWTResolver(secret string, leeway time.Duration) *JWTResolver {
	if leeway <= 0 {
		leeway = 60 * time.Second
	}
	return &JWTResolver{secret: []byte(secret), leeway: leeway}
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(_ context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, fmt.Errorf("%w: empty credential", ErrUnauthorized)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(r.leeway),
	)
	parsed, err := parser.Parse(credential, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: token parse/verify failed: %v", ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid claims type", ErrUnauthorized)
	}

	userID := claimString(claims, "user_id")
	if userID == "" {
		userID = claimString(claims, "sub")
	}
	if userID == "" {
		return Identity{}, fmt.Errorf("%w: missing user_id", ErrUnauthorized)
	}

	username := claimString(claims, "username")
	if username == "" {
		username = userID
	}

	return Identity{UserID: userID, Username: username}, nil
}

// claimString reads a claim as a string, tolerating numeric user IDs.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
