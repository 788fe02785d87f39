package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var allPermissions = []string{
	"project.view",
	"project.index",
	"project.update",
	"project.delete",
}

// AuthMiddleware authenticates the request with either the master API key or
// a bearer JWT verified against the configured JWKS.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cc := c.(*AppContext)

		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		token := strings.Split(authHeader, " ")[1]

		// Master API key bypass for service-to-service calls
		if cc.App.MasterAPIKey != "" && token == cc.App.MasterAPIKey {
			cc.User = &AppUser{UserID: 0, Role: "admin", Permissions: allPermissions}
			return next(c)
		}

		k := *cc.App.Key
		parsed, err := jwt.Parse(token, k.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		user, err := userFromClaims(claims)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}
		cc.User = user

		return next(c)
	}
}

func userFromClaims(claims jwt.MapClaims) (*AppUser, error) {
	var userID int64
	switch id := claims["id"].(type) {
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, err
		}
		userID = parsed
	case float64:
		userID = int64(id)
	default:
		return nil, errors.New("missing id claim")
	}

	role := "user"
	if r, ok := claims["role"].(string); ok {
		role = r
	}

	var permissions []string
	if raw, ok := claims["permissions"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				permissions = append(permissions, s)
			}
		}
	}
	// Admin tokens without an explicit grant get everything.
	if role == "admin" && len(permissions) == 0 {
		permissions = allPermissions
	}

	return &AppUser{UserID: userID, Role: role, Permissions: permissions}, nil
}
