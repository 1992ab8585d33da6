package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultCallTimeout is how long a call invitation rings before it is
// recorded as missed.
const DefaultCallTimeout = 30 * time.Second

// DefaultFrontendURL is the allowed browser origin when FRONTEND_URL is unset
// or lists nothing.
const DefaultFrontendURL = "http://localhost:5173"

// Config holds server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr         string
	DatabasePath string
	JWTSecret    string
	Debug        bool
	LogLevel     string
	// AllowedOrigins is applied to both the REST CORS middleware and the
	// Socket.IO handshake.
	AllowedOrigins []string
	// CallTimeout bounds how long a call attempt stays pending.
	CallTimeout time.Duration
	// SocketAuth requires a valid JWT on realtime connections and pins `join`
	// to the token subject.
	SocketAuth bool
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr         *string
	DatabasePath *string
	JWTSecret    *string
	Debug        *bool
	CallTimeout  *time.Duration
	SocketAuth   *bool
}

// Load loads server configuration from environment variables and applies any
// explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	port := 5000
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		port = p
	}

	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./sukoon.db"
	}
	if overrides.DatabasePath != nil {
		dbPath = *overrides.DatabasePath
	}

	secret := os.Getenv("JWT_SECRET")
	if overrides.JWTSecret != nil {
		secret = *overrides.JWTSecret
	}
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	debug := envBool("DEBUG")
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" && debug {
		logLevel = "debug"
	}

	origins := splitList(os.Getenv("FRONTEND_URL"))
	if len(origins) == 0 {
		origins = []string{DefaultFrontendURL}
	}

	callTimeout := DefaultCallTimeout
	if raw := os.Getenv("CALL_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CALL_TIMEOUT %q: %w", raw, err)
		}
		callTimeout = d
	}
	if overrides.CallTimeout != nil {
		callTimeout = *overrides.CallTimeout
	}
	if callTimeout <= 0 {
		return nil, fmt.Errorf("call timeout must be positive, got %s", callTimeout)
	}

	socketAuth := envBool("SOCKET_AUTH")
	if overrides.SocketAuth != nil {
		socketAuth = *overrides.SocketAuth
	}

	return &Config{
		Addr:           addr,
		DatabasePath:   dbPath,
		JWTSecret:      secret,
		Debug:          debug,
		LogLevel:       logLevel,
		AllowedOrigins: origins,
		CallTimeout:    callTimeout,
		SocketAuth:     socketAuth,
	}, nil
}

func envBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
