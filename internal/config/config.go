package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strings"
    "time"
    _ "time/tzdata" // zone database for minimal images

    "github.com/joho/godotenv"
    "github.com/kelseyhightower/envconfig"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/scooter-reservation/internal/model"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env      string `envconfig:"APP_ENV" default:"dev"`     // application environment (e.g. "dev", "prod")
    Port     string `envconfig:"APP_PORT" default:"8080"`   // HTTP port to listen on
    LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // logrus level name
    DBUser   string `envconfig:"DB_USER" required:"true"`   // database username
    DBPass   string `envconfig:"DB_PASS"`                   // database password (optional)
    DBHost   string `envconfig:"DB_HOST" required:"true"`   // database host address
    DBPort   string `envconfig:"DB_PORT" required:"true"`   // database port number
    DBName   string `envconfig:"DB_NAME" required:"true"`   // database name
    Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"` // apply the embedded schema at startup

    JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`        // secret used to verify JWTs
    AccessTTLMin int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"` // lifetime of tokens minted by cmd/devtoken

    RabbitURL          string `envconfig:"RABBITMQ_URL"`                                 // empty disables publishing and consuming
    BookingExchange    string `envconfig:"BOOKING_EXCHANGE" default:"booking.events"`    // topic exchange for booking events
    ScooterEventsQueue string `envconfig:"SCOOTER_EVENTS_QUEUE" default:"scooter.events"` // fleet pick-up/return events
    ScooterExchange    string `envconfig:"SCOOTER_EXCHANGE"`                             // optional exchange the queue is bound to

    Booking BookingConfig `ignored:"true"`
}

// BookingConfig carries the engine parameters.  Read with the BOOKING_
// prefix, e.g. BOOKING_OPENING_HOUR.
type BookingConfig struct {
    OpeningHour   int    `envconfig:"OPENING_HOUR" default:"8"`
    ClosingHour   int    `envconfig:"CLOSING_HOUR" default:"20"`
    BufferMinutes int    `envconfig:"BUFFER_MINUTES" default:"60"`
    Durations     []int  `envconfig:"DURATIONS" default:"60,120,240,480"`
    Timezone      string `envconfig:"TIMEZONE" default:"Europe/Amsterdam"`
}

// Load reads .env when present, then the environment.  Missing required
// variables and invalid engine parameters are reported as errors.
func Load() (Config, error) {
    // A missing .env is normal outside local development.
    _ = godotenv.Load()

    var cfg Config
    if err := envconfig.Process("", &cfg); err != nil {
        return Config{}, fmt.Errorf("config: %w", err)
    }
    b, err := LoadBookingConfig()
    if err != nil {
        return Config{}, err
    }
    cfg.Booking = b
    return cfg, nil
}

// LoadBookingConfig reads and validates the BOOKING_ variables.
func LoadBookingConfig() (BookingConfig, error) {
    var b BookingConfig
    if err := envconfig.Process("booking", &b); err != nil {
        return BookingConfig{}, fmt.Errorf("config: %w", err)
    }
    if err := b.Validate(); err != nil {
        return BookingConfig{}, err
    }
    return b, nil
}

// Validate rejects parameter sets the engine cannot work with.
func (b BookingConfig) Validate() error {
    if b.OpeningHour < 0 || b.ClosingHour > 24 || b.ClosingHour <= b.OpeningHour {
        return fmt.Errorf("config: business hours %d..%d are invalid", b.OpeningHour, b.ClosingHour)
    }
    if b.BufferMinutes < 0 {
        return fmt.Errorf("config: negative buffer %d", b.BufferMinutes)
    }
    if len(b.Durations) == 0 {
        return fmt.Errorf("config: no duration options")
    }
    for _, d := range b.Durations {
        if d <= 0 || d%60 != 0 {
            return fmt.Errorf("config: duration %d is not a positive multiple of 60", d)
        }
    }
    if _, err := time.LoadLocation(b.Timezone); err != nil {
        return fmt.Errorf("config: timezone %q: %w", b.Timezone, err)
    }
    return nil
}

// Location resolves Timezone; Validate has already checked it.
func (b BookingConfig) Location() *time.Location {
    loc, err := time.LoadLocation(b.Timezone)
    if err != nil {
        return time.UTC
    }
    return loc
}

// DurationOptions converts Durations into model values.
func (b BookingConfig) DurationOptions() []model.Duration {
    out := make([]model.Duration, 0, len(b.Durations))
    for _, d := range b.Durations {
        out = append(out, model.Duration(d))
    }
    return out
}

// Buffer returns the hand-back buffer as a time.Duration.
func (b BookingConfig) Buffer() time.Duration {
    return time.Duration(b.BufferMinutes) * time.Minute
}

// NewLogger builds the process logger: text in dev, JSON elsewhere.  An
// unknown level falls back to info.
func NewLogger(env, level string) *logrus.Logger {
    log := logrus.New()
    log.SetOutput(os.Stdout)
    if strings.EqualFold(env, "dev") {
        log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    } else {
        log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
    }
    lvl, err := logrus.ParseLevel(level)
    if err != nil {
        lvl = logrus.InfoLevel
    }
    log.SetLevel(lvl)
    return log
}
