package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration-valued variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, time.Duration for polling knobs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing

    GatewayBaseURL       string        // base URL of the payment gateway API
    GatewaySecretKey     string        // secret key used to authenticate gateway API calls
    GatewayWebhookSecret string        // shared secret for webhook signature verification
    GatewayClientID      string        // OAuth client id for the gateway connect flow
    GatewayClientSecret  string        // OAuth client secret for the gateway connect flow
    GatewayRedirectURL   string        // redirect URL registered with the gateway for OAuth callbacks
    PollInterval         time.Duration // default interval between payment status checks
    PollTimeout          time.Duration // default wall-clock ceiling for a status wait request
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Polling knobs have
// sensible defaults and may be omitted.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),

        GatewayBaseURL:       must("GATEWAY_BASE_URL"),
        GatewaySecretKey:     must("GATEWAY_SECRET_KEY"),
        GatewayWebhookSecret: must("GATEWAY_WEBHOOK_SECRET"),
        GatewayClientID:      must("GATEWAY_CLIENT_ID"),
        GatewayClientSecret:  must("GATEWAY_CLIENT_SECRET"),
        GatewayRedirectURL:   must("GATEWAY_REDIRECT_URL"),
        PollInterval:         durOr("PAYMENT_POLL_INTERVAL", 2*time.Second),
        PollTimeout:          durOr("PAYMENT_POLL_TIMEOUT", 90*time.Second),
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// durOr parses an optional duration variable, falling back to the given
// default when the variable is unset or malformed.  Unlike must(), a bad
// value is fatal but absence is not: polling knobs are tunables, not
// deployment requirements.
func durOr(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        log.Fatalf("invalid duration for %s: %q", key, v)
    }
    return d
}
