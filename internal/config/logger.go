package config

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger: JSON production output in
// prod, human-readable development output otherwise.  level overrides the
// default level when it parses ("debug", "info", "warn", "error").
func NewLogger(env, level string) (*zap.Logger, error) {
    var zc zap.Config
    if env == "prod" || env == "production" {
        zc = zap.NewProductionConfig()
        zc.EncoderConfig.TimeKey = "timestamp"
        zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    } else {
        zc = zap.NewDevelopmentConfig()
    }
    if level != "" {
        lvl, err := zapcore.ParseLevel(level)
        if err != nil {
            return nil, err
        }
        zc.Level = zap.NewAtomicLevelAt(lvl)
    }
    return zc.Build()
}
