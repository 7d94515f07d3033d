package config

// Redis backs the realtime seat feed, booking rate limiting, the category
// response cache and client recovery state.  If the server cannot be
// reached at startup, NewRedisClient returns nil and callers degrade:
// caching and rate limiting are disabled and the seat stream reports 503.

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig describes how to reach Redis.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads:
//   REDIS_ADDR – host:port (REDIS_HOST and REDIS_PORT take precedence when both set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// Options converts the config into go-redis client options.
func (c RedisConfig) Options() *redis.Options {
    opt := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
    if c.TLS {
        opt.TLSConfig = &tls.Config{ServerName: strings.Split(c.Addr, ":")[0]}
    }
    return opt
}

// NewRedisClient connects and pings with a short timeout.  It returns nil
// on failure.
func NewRedisClient(c RedisConfig) *redis.Client {
    client := redis.NewClient(c.Options())
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
