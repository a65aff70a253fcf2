package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	SessionIdleMin int    // session idle timeout in minutes (sliding)
	SessionCookie  string // name of the session cookie
	BcryptCost     int    // bcrypt cost for password hashing
	LoyaltyRate    int    // cents of purchase total per loyalty point
	SMTPHost       string // SMTP server host (empty disables mail)
	SMTPPort       int    // SMTP server port
	SMTPUser       string // SMTP username
	SMTPPass       string // SMTP password
	FromEmail      string // From address for outgoing mail
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Mail settings are optional;
// an empty SMTP host disables the confirmation mailer.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),  // environment (dev/test/prod)
		Port:           must("APP_PORT"), // port to bind the HTTP server
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		SessionIdleMin: atoi(getenv("SESSION_IDLE_MIN", "30")),
		SessionCookie:  getenv("SESSION_COOKIE", "cafevt_session"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		LoyaltyRate:    atoi(getenv("LOYALTY_CENTS_PER_POINT", "100")),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       atoi(getenv("SMTP_PORT", "587")),
		SMTPUser:       os.Getenv("SMTP_USERNAME"),
		SMTPPass:       os.Getenv("SMTP_PASSWORD"),
		FromEmail:      getenv("FROM_EMAIL", "noreply@cafevt.local"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
