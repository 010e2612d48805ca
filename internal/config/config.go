package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Database and JWT settings are required; the
// terminal-specific settings all have workable defaults so a development
// station boots with nothing but a database.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to sign operator JWTs

	AccessTTLMin int // operator access token time-to-live in minutes

	CafeteriaName string // display name broadcast with scan results
	StationID     string // identifier of this physical terminal

	AMQPURL string // RabbitMQ URL for billing events (empty disables)

	MockReader         bool          // use the synthetic reader instead of hardware
	ReaderFamily       string        // device family the reader name must contain
	ReaderAutoReconn   bool          // reconnect automatically after drops
	ReaderPoll         time.Duration // hardware presence-poll interval
	ReaderErrorRetry   time.Duration // backoff after an errored reader drop
	ReaderReconnectGap time.Duration // backoff after clean drops and failed attempts
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       envStr("APP_ENV", "dev"),
		Port:      envStr("APP_PORT", "8080"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 480),

		CafeteriaName: envStr("CAFETERIA_NAME", "School Cafeteria"),
		StationID:     envStr("STATION_ID", "STATION_001"),

		AMQPURL: os.Getenv("AMQP_URL"),

		MockReader:         envBool("MOCK_RFID_READER", false),
		ReaderFamily:       envStr("RFID_READER_NAME", "ACR1252"),
		ReaderAutoReconn:   envBool("RFID_AUTO_RECONNECT", true),
		ReaderPoll:         envDur("RFID_POLL_INTERVAL", 500*time.Millisecond),
		ReaderErrorRetry:   envDur("RFID_ERROR_RETRY", 5*time.Second),
		ReaderReconnectGap: envDur("RFID_RECONNECT_DELAY", 10*time.Second),
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
