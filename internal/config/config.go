package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration values
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The front-end owns no database: every durable
// record lives behind the backend API, and per-browser state lives in the
// session store, so the only required settings are the listen port and the
// backend base URL.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    BackendBaseURL string        // base URL of the CRM backend API, e.g. https://api.example.com
    BackendTimeout time.Duration // per-request timeout for backend calls
    CookieName     string        // name of the browser session cookie
    CookieSecure   bool          // set the Secure flag on the session cookie
    SessionWindow  time.Duration // lifetime of a pending-verification handshake
    MaxOTPAttempts int           // failed OTP submissions allowed per handshake window
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),          // environment (dev/test/prod)
        Port:           must("APP_PORT"),         // port to bind the HTTP server
        BackendBaseURL: must("BACKEND_BASE_URL"), // where the CRM backend lives
        BackendTimeout: envDur("BACKEND_TIMEOUT", 10*time.Second),
        CookieName:     envStr("SESSION_COOKIE_NAME", "crm_session"),
        CookieSecure:   envBool("SESSION_COOKIE_SECURE", false),
        SessionWindow:  envDur("VERIFICATION_WINDOW", 15*time.Minute),
        MaxOTPAttempts: envInt("MAX_OTP_ATTEMPTS", 5),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
