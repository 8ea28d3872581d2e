package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger logs one structured line per request.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req := c.Request()
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("route", c.Path()),
                zap.Int("status", c.Response().Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
            }
            if uid := UserID(c); uid != "" {
                fields = append(fields, zap.String("user_id", uid))
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            switch status := c.Response().Status; {
            case status >= 500:
                log.Error("request", fields...)
            case status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        }
    }
}
