package config

import (
    "strings"
    "time"
)

// CacheConfig defines the response cache for catalog reads (the zone
// listing and fuzzy resolution).  The catalog is fixed for the life of
// the process, so entries only expire to bound memory.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 10*time.Minute),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "zq:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 64<<10),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range splitList(s) {
        m[strings.ToUpper(p)] = true
    }
    return m
}
