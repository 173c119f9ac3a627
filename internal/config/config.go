package config // package config loads application configuration from environment variables

import (
	"errors"  // errors builds validation failures
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses session durations

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for costs and
// nested structs for concerns with several knobs.
type Config struct {
	Env        string        // application environment (e.g. "dev", "prod")
	Port       string        // HTTP port to listen on
	DBUser     string        // database username
	DBPass     string        // database password (optional)
	DBHost     string        // database host address
	DBPort     string        // database port number
	DBName     string        // database name
	BcryptCost int           // bcrypt cost for password hashing
	AMQPURL    string        // RabbitMQ URL for inventory events; empty disables publishing
	LogDir     string        // directory the inventory consumer appends to
	Session    SessionConfig // session cookie and timeout settings
	Log        LogConfig     // zap/lumberjack settings
}

// SessionConfig controls the server-side session lifecycle.  Timeout is the
// inactivity window after which the Auth Gate rejects a session.  Warning is
// how long before Timeout the browser shows the "extend or logout" dialog.
type SessionConfig struct {
	CookieName string
	Secure     bool
	Timeout    time.Duration
	Warning    time.Duration
}

// LogConfig selects the logger encoding and an optional rotated log file.
type LogConfig struct {
	Mode     string // "production" or "development"
	Filename string // empty disables file output
}

// ErrWarningNotBeforeTimeout is returned when the warning lead time would
// make the browser warning fire at or after the expiry.
var ErrWarningNotBeforeTimeout = errors.New("session warning must be shorter than session timeout")

// Validate checks that the warning timer always fires before the expiry timer.
func (s SessionConfig) Validate() error {
	if s.Timeout <= 0 {
		return errors.New("session timeout must be positive")
	}
	if s.Warning <= 0 || s.Warning >= s.Timeout {
		return ErrWarningNotBeforeTimeout
	}
	return nil
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first (existing
// variables win).  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // optional; absent file is not an error worth reporting

	env := must("APP_ENV") // environment (dev/test/prod)
	cfg := Config{
		Env:        env,
		Port:       must("APP_PORT"),          // port to bind the HTTP server
		DBUser:     must("DB_USER"),           // database user
		DBPass:     os.Getenv("DB_PASS"),      // database password (empty allowed)
		DBHost:     must("DB_HOST"),           // database host
		DBPort:     must("DB_PORT"),           // database port
		DBName:     must("DB_NAME"),           // database name
		BcryptCost: envInt("BCRYPT_COST", 10), // bcrypt cost factor
		AMQPURL:    firstEnv("RABBITMQ_URL", "AMQP_URL"),
		LogDir:     envStr("LOG_DIR", "logs"),
		Session: SessionConfig{
			CookieName: envStr("SESSION_COOKIE_NAME", "KASIRKU_SESSID"),
			Secure:     envBool("SESSION_COOKIE_SECURE", env == "prod"),
			Timeout:    envDur("SESSION_TIMEOUT", 7200*time.Second),
			Warning:    envDur("SESSION_WARNING", 300*time.Second),
		},
		Log: LogConfig{
			Mode:     envStr("LOG_MODE", modeFor(env)),
			Filename: os.Getenv("LOG_FILE"),
		},
	}
	if err := cfg.Session.Validate(); err != nil {
		log.Fatalf("invalid session config: %v", err)
	}
	return cfg
}

func modeFor(env string) string {
	if env == "prod" {
		return "production"
	}
	return "development"
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

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// parseSeconds accepts either a Go duration ("2h") or a bare number of seconds ("7200").
func parseSeconds(s string) (time.Duration, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	return 0, false
}
