package config

// This file defines a Redis client constructor for the application.  Redis is
// used for distributed rate limiting, availability response caching and the
// pool generation counters.  If connection fails during startup, the
// constructor returns nil and callers should degrade gracefully.

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/kelseyhightower/envconfig"
    "github.com/redis/go-redis/v9"
)

// RedisConfig is read from REDIS_HOST and REDIS_PORT, or REDIS_ADDR (host
// and port win when both are set), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
type RedisConfig struct {
    Host     string `envconfig:"REDIS_HOST"`
    Port     string `envconfig:"REDIS_PORT"`
    Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
    Password string `envconfig:"REDIS_PASSWORD"`
    DB       int    `envconfig:"REDIS_DB" default:"0"`
    TLS      bool   `envconfig:"REDIS_TLS" default:"false"`
}

// LoadRedisConfig reads the REDIS_ variables.
func LoadRedisConfig() (RedisConfig, error) {
    var c RedisConfig
    if err := envconfig.Process("", &c); err != nil {
        return RedisConfig{}, fmt.Errorf("config: %w", err)
    }
    return c, nil
}

// Address returns the host:port to dial.
func (c RedisConfig) Address() string {
    if c.Host != "" && c.Port != "" {
        return c.Host + ":" + c.Port
    }
    return c.Addr
}

// NewRedisClient instantiates a Redis client.  The returned client is nil
// if a connection cannot be established.
func NewRedisClient(c RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if c.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      c.Address(),
        Password:  c.Password,
        DB:        c.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
