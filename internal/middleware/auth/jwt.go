package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
)

// JWTConfig holds the configuration for the admin bearer-token middleware
type JWTConfig struct {
	Secret string
	Logger *zap.Logger
}

// JWTMiddleware protects the administrative inspection endpoints
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", c.Request().URL.Path))
				return adminUnauthorized(c)
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", c.Request().URL.Path))
				return adminUnauthorized(c)
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.Secret), nil
			})
			if err != nil || !token.Valid {
				config.Logger.Warn("JWT validation failed",
					zap.String("path", c.Request().URL.Path),
					zap.Error(err))
				return adminUnauthorized(c)
			}

			return next(c)
		}
	}
}

func adminUnauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"status":  "error",
		"code":    apperrors.CodeUnauthorized,
		"message": "unauthorized",
	})
}
