// Package authn resolves the identity of the caller from the access token
// issued by the auth provider. Tokens are verified, never issued, except by the
// development token endpoint.
package authn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evidenceledger/proxybid/internal/cache"
	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

const (
	identityKey = "identity"
	cookieName  = "access_token"
	jwksTTL     = 10 * time.Minute
)

var (
	ErrNoToken      = errors.New("no access token")
	ErrInvalidToken = errors.New("invalid access token")
)

// Identity is the authenticated user behind a request
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Config selects how tokens are verified. With JWKSURL set, asymmetric tokens
// are checked against the provider keys; with HMACSecret set, HS256 tokens are accepted.
type Config struct {
	Issuer     string
	Audience   string
	HMACSecret string
	JWKSURL    string
}

// Verifier checks access tokens
type Verifier struct {
	cfg     Config
	cache   *cache.Cache
	methods []string
}

// NewVerifier creates a Verifier. Fetched key sets are kept in c.
func NewVerifier(cfg Config, c *cache.Cache) (*Verifier, error) {
	if cfg.HMACSecret == "" && cfg.JWKSURL == "" {
		return nil, errl.Errorf("either an HMAC secret or a JWKS URL is required")
	}
	if c == nil {
		c = cache.New(jwksTTL)
	}

	v := &Verifier{cfg: cfg, cache: c}
	if cfg.HMACSecret != "" {
		v.methods = append(v.methods, "HS256")
	}
	if cfg.JWKSURL != "" {
		v.methods = append(v.methods, "RS256", "RS384", "RS512", "ES256", "ES384", "PS256")
	}

	slog.Info("Token verifier initialized", "issuer", cfg.Issuer, "jwks", cfg.JWKSURL != "", "hmac", cfg.HMACSecret != "")
	return v, nil
}

// Verify parses and validates a token and returns the identity it carries
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.key(ctx, token)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id := &Identity{
		UserID: stringClaim(claims, "sub"),
		Email:  stringClaim(claims, "email"),
		Name:   stringClaim(claims, "name"),
		Role:   stringClaim(claims, "role"),
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if id.Role == "" {
		id.Role = "user"
	}
	return id, nil
}

func (v *Verifier) key(ctx context.Context, token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if v.cfg.HMACSecret == "" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.cfg.HMACSecret), nil
	}

	kid, _ := token.Header["kid"].(string)
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, err
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		// The provider may have rotated its keys
		v.cache.Delete(v.cacheKey())
		if set, err = v.keySet(ctx); err != nil {
			return nil, err
		}
		if key, found = set.LookupKeyID(kid); !found {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, errl.Errorf("exporting key %q: %w", kid, err)
	}
	return raw, nil
}

func (v *Verifier) keySet(ctx context.Context) (jwk.Set, error) {
	if cached, found := v.cache.Get(v.cacheKey()); found {
		if set, ok := cached.(jwk.Set); ok {
			return set, nil
		}
	}

	set, err := jwk.Fetch(ctx, v.cfg.JWKSURL)
	if err != nil {
		return nil, errl.Errorf("fetching JWKS from %s: %w", v.cfg.JWKSURL, err)
	}
	v.cache.Set(v.cacheKey(), set, jwksTTL)
	return set, nil
}

func (v *Verifier) cacheKey() string {
	return "jwks:" + v.cfg.JWKSURL
}

// Issue signs an HS256 token for id. It is used by the development token endpoint.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	if v.cfg.HMACSecret == "" {
		return "", errl.Errorf("token issuing requires an HMAC secret")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"name":  id.Name,
		"role":  id.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if v.cfg.Issuer != "" {
		claims["iss"] = v.cfg.Issuer
	}
	if v.cfg.Audience != "" {
		claims["aud"] = v.cfg.Audience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(v.cfg.HMACSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// Middleware rejects requests without a valid token and stores the identity for handlers
func (v *Verifier) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := v.Verify(c.UserContext(), TokenFrom(c))
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				slog.Warn("Rejected access token", "path", c.Path(), "error", err)
			}
			return fiber.NewError(fiber.StatusUnauthorized, "로그인이 필요합니다")
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// TokenFrom extracts the access token from the Authorization header or the session cookie
func TokenFrom(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return c.Cookies(cookieName)
}

// CookieName is the cookie that carries the access token for browser sessions
func CookieName() string {
	return cookieName
}

// FromCtx returns the identity stored by Middleware, or nil
func FromCtx(c *fiber.Ctx) *Identity {
	id, _ := c.Locals(identityKey).(*Identity)
	return id
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}
