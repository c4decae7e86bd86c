package config

import "time"

// RateLimitConfig controls the fixed-window limiter applied to credential
// endpoints (login, signup, OTP verify/resend, password reset).  These are
// the only routes worth limiting: everything else is either session-gated
// or a cacheable read.  When Enabled is false or no Redis client is
// configured, the limiter becomes a no-op.
type RateLimitConfig struct {
    Enabled bool
    Limit   int           // requests allowed per window
    Window  time.Duration // window length
    Prefix  string        // key namespace in Redis
}

// LoadRateLimitConfig reads environment variables to build a RateLimitConfig.
// Defaults are used when variables are not set.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Limit:   envInt("RATE_LIMIT_REQUESTS", 20),
        Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
        Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Limit < 1 {
        cfg.Limit = 1
    }
    if cfg.Window <= 0 {
        cfg.Window = time.Minute
    }
    return cfg
}

// CacheConfig defines settings for the response cache on the public pricing
// endpoint.  Plans change rarely and are identical for every visitor, so a
// short shared TTL removes most backend round trips.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: envBool("CACHE_ENABLED", true),
        TTL:     envDur("CACHE_TTL", 60*time.Second),
        Prefix:  envStr("CACHE_PREFIX", "cache"),
    }
}
