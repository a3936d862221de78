package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware guards trip and board routes: it checks the bearer token
// against the signing secret and puts the owning user id in locals under
// "user_id" for the handlers downstream.
func JWTMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization required")
		}

		var claims Claims
		parsed, err := jwt.ParseWithClaims(token, &claims, func(_ *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid || claims.UserID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired or invalid")
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

// bearerToken pulls the credentials out of an Authorization header,
// accepting any casing of the Bearer scheme.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
