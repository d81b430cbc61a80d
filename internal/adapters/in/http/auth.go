package http

import (
	"errors"
	"net/http"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	principalContextKey = "principal"
	accessTokenQuery    = "access_token"
)

var errMissingToken = errors.New("missing bearer token")

// Claims is the token shape issued by the identity provider. Subject is the
// principal id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator turns a bearer token into a kernel.Principal.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator verifies HS256 tokens signed with secret.
func NewAuthenticator(secret string) Authenticator {
	return Authenticator{secret: []byte(secret)}
}

// Parse validates the token and maps its sub and role claims to a principal.
func (a Authenticator) Parse(tokenStr string) (kernel.Principal, error) {
	if len(a.secret) == 0 {
		return kernel.Principal{}, errors.New("jwt secret is empty")
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return kernel.Principal{}, err
	}
	if !tok.Valid {
		return kernel.Principal{}, errors.New("invalid token")
	}

	return kernel.NewPrincipal(claims.Subject, kernel.Role(strings.ToLower(claims.Role)))
}

// Sign issues a token for p. Used by tooling and tests.
func (a Authenticator) Sign(p kernel.Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.ID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: string(p.Role), RegisteredClaims: claims})
	return token.SignedString(a.secret)
}

// Middleware rejects requests without a valid bearer token and stores the
// principal on the echo context. Browsers cannot set headers on a websocket
// handshake, so the token is also accepted as the access_token query parameter.
func (a Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			principal, err := a.Parse(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			c.Set(principalContextKey, principal)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if q := c.QueryParam(accessTokenQuery); q != "" {
			return q, nil
		}
		return "", errMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFrom returns the principal stored by Middleware.
func PrincipalFrom(c echo.Context) (kernel.Principal, bool) {
	p, ok := c.Get(principalContextKey).(kernel.Principal)
	return p, ok
}
