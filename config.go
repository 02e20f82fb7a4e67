package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config is the server configuration. Values are layered: defaults, then an
// optional .env file, then ARENA_* environment variables, then flags.
type Config struct {
	Addr          string
	ClientDir     string
	DBPath        string // empty disables the journal database
	LogLevel      string
	PublicURL     string // base URL encoded into session QR codes
	SeatSecret    string
	TickRate      int
	BroadcastRate int
	MaxSessions   int
	SessionIdle   time.Duration
	Keymap        Keymap
	Match         MatchConfig
}

// DefaultServerConfig returns the configuration used when nothing is set
func DefaultServerConfig() Config {
	return Config{
		Addr:          ":8080",
		ClientDir:     "../client",
		DBPath:        "arena.db",
		LogLevel:      "info",
		PublicURL:     "http://localhost:8080",
		TickRate:      DefaultTickRate,
		BroadcastRate: DefaultBroadcastRate,
		MaxSessions:   defaultMaxSessions,
		SessionIdle:   SessionIdleTimeout,
		Keymap:        DefaultKeymap(),
		Match:         DefaultConfig(ModeLocal),
	}
}

// LoadConfig builds the configuration from args (without the program name)
// and the environment
func LoadConfig(args []string) (Config, error) {
	cfg := DefaultServerConfig()

	fset := flag.NewFlagSet("arena", flag.ContinueOnError)
	envFile := fset.String("env", ".env", "Path to an optional .env file")
	addr := fset.String("addr", cfg.Addr, "HTTP listen address")
	clientDir := fset.String("client", cfg.ClientDir, "Path to client directory")
	dbPath := fset.String("db", cfg.DBPath, "SQLite journal path (empty disables)")
	logLevel := fset.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", *envFile, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	// Flags given explicitly win over the environment
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "client":
			cfg.ClientDir = *clientDir
		case "db":
			cfg.DBPath = *dbPath
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString("ARENA_ADDR", &c.Addr)
	envString("ARENA_CLIENT_DIR", &c.ClientDir)
	envString("ARENA_DB", &c.DBPath)
	envString("ARENA_LOG_LEVEL", &c.LogLevel)
	envString("ARENA_PUBLIC_URL", &c.PublicURL)
	envString("ARENA_SEAT_SECRET", &c.SeatSecret)

	if v, ok := os.LookupEnv("ARENA_KEYMAP"); ok && v != "" {
		km, err := ParseKeymap(v)
		if err != nil {
			return fmt.Errorf("ARENA_KEYMAP: %w", err)
		}
		c.Keymap = km
	}

	m := &c.Match
	return errors.Join(
		envInt("ARENA_TICK_RATE", &c.TickRate),
		envInt("ARENA_BROADCAST_RATE", &c.BroadcastRate),
		envInt("ARENA_MAX_SESSIONS", &c.MaxSessions),
		envDuration("ARENA_SESSION_IDLE", &c.SessionIdle),
		envFloat("ARENA_ROTATE_STEP", &m.Controls.RotateStep),
		envFloat("ARENA_THRUST_IMPULSE", &m.Controls.ThrustImpulse),
		envFloat("ARENA_FIRE_IMPULSE", &m.Controls.FireImpulse),
		envFloat("ARENA_FIRE_COOLDOWN", &m.Controls.FireCooldown),
		envInt("ARENA_MAX_TORPEDOES", &m.Controls.MaxTorpedoes),
		envBool("ARENA_SHIP_COLLISION_FATAL", &m.ShipCollisionFatal),
		envBool("ARENA_FRIENDLY_FIRE", &m.FriendlyFire),
		envBool("ARENA_WRAP_TORPEDOES", &m.WrapTorpedoes),
		envFloat("ARENA_TORPEDO_LIFETIME", &m.TorpedoLifetime),
		envFloat("ARENA_MAX_FRAME_DELTA", &m.MaxFrameDelta),
	)
}

// Validate checks the server settings and the match rules
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.TickRate <= 0 || c.BroadcastRate <= 0 {
		return fmt.Errorf("%w: tick and broadcast rates must be positive", ErrInvalidConfig)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: max sessions %d", ErrInvalidConfig, c.MaxSessions)
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("%w: session idle %s", ErrInvalidConfig, c.SessionIdle)
	}
	if len(c.Keymap) == 0 {
		return fmt.Errorf("%w: empty keymap", ErrInvalidConfig)
	}
	return c.Match.Validate()
}

// ApplyLogLevel sets the global logger level
func (c Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
