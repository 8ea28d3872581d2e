package middleware // middleware holds reusable HTTP middleware for the command surface

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    CtxUserID   = "user_id"
    CtxUserName = "user_name"
    CtxRole     = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer token issued
// by the chat gateway and stores the member identity in the context: the
// platform user id (sub), display name (name) and role.  Tokens without a
// subject or name are rejected; a member without a name cannot queue.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sub, _ := claims["sub"].(string)
            name, _ := claims["name"].(string)
            role, _ := claims["role"].(string)
            if sub == "" || name == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token lacks member identity"})
            }
            c.Set(CtxUserID, sub)
            c.Set(CtxUserName, name)
            c.Set(CtxRole, role)
            return next(c)
        }
    }
}

// UserID returns the authenticated member id, or "" outside JWTAuth.
func UserID(c echo.Context) string {
    s, _ := c.Get(CtxUserID).(string)
    return s
}

// UserName returns the authenticated member display name.
func UserName(c echo.Context) string {
    s, _ := c.Get(CtxUserName).(string)
    return s
}
