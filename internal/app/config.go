package app

import "time"

// Config holds all configurable parameters for the application.
type Config struct {
	RootDir  string
	Port     int
	LogLevel string

	EngineCommand string
	EngineTimeout time.Duration
	ProbeTimeout  time.Duration

	EventBufferSize  int
	EventHistorySize int

	RateLimiterTTL  time.Duration
	WatcherDebounce time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		RootDir:  "./projects",
		Port:     8080,
		LogLevel: "debug",

		EngineCommand: "backstop",
		EngineTimeout: 10 * time.Minute,
		ProbeTimeout:  5 * time.Second,

		EventBufferSize:  64,
		EventHistorySize: 200,

		RateLimiterTTL:  10 * time.Minute,
		WatcherDebounce: 500 * time.Millisecond,

		ReadTimeout: 30 * time.Second,
		// Runs block the /test request for the engine's full lifetime.
		WriteTimeout:    15 * time.Minute,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}
