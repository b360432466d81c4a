package middleware

import (
	"fmt"
	"strings"
	"time"

	"sgti/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// ParseToken validates a bearer token string and returns its claims.
// tokenType distinguishes access tokens from refresh tokens.
func ParseToken(tokenString, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return nil, fmt.Errorf("token expired")
	}
	if typ, ok := claims["type"].(string); !ok || typ != tokenType {
		return nil, fmt.Errorf("wrong token type")
	}
	if _, ok := claims["sub"].(string); !ok {
		return nil, fmt.Errorf("invalid subject in token")
	}
	return claims, nil
}

// UseToken guards a route group with an access token. On success the owning
// user's id and email are stored in locals.
func UseToken(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token provided"})
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token format"})
	}
	claims, err := ParseToken(parts[1], "access")
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}
	c.Locals("userID", claims["sub"].(string))
	if email, ok := claims["email"].(string); ok {
		c.Locals("email", email)
	}
	return c.Next()
}
