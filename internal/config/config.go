package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time parses TTL durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    JWTIssuer      string // issuer (iss) claim stamped on access tokens
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing
    OTPTTL         time.Duration // lifetime of one-time codes
    GoogleClientID string // audience expected on Google identity tokens
    CookieDomain   string // domain attribute for the refresh cookie (optional)
    CookieSecure   bool   // whether the refresh cookie is Secure
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values fall
// back to sensible defaults for development.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),             // environment (dev/test/prod)
        Port:           must("APP_PORT"),            // port to bind the HTTP server
        DBUser:         must("DB_USER"),             // database user
        DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:         must("DB_HOST"),             // database host
        DBPort:         must("DB_PORT"),             // database port
        DBName:         must("DB_NAME"),             // database name
        JWTSecret:      must("JWT_SECRET"),          // secret used for signing JWTs
        JWTIssuer:      optional("JWT_ISSUER", "modacart-auth"),
        AccessTTLMin:   optionalInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays: optionalInt("REFRESH_TOKEN_TTL_DAYS", 30),
        BcryptCost:     optionalInt("BCRYPT_COST", 12),
        OTPTTL:         time.Duration(optionalInt("OTP_TTL_MIN", 10)) * time.Minute,
        GoogleClientID: must("GOOGLE_CLIENT_ID"),    // audience for external identity tokens
        CookieDomain:   os.Getenv("COOKIE_DOMAIN"),  // empty scopes the cookie to the host
        CookieSecure:   optional("COOKIE_SECURE", "true") == "true",
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

// optional retrieves an environment variable, falling back to def when it is
// unset or empty.
func optional(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// optionalInt is like optional() but converts the retrieved string into an
// integer.  If conversion fails, the application logs a fatal error so a
// typo cannot silently change a TTL.
func optionalInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}
