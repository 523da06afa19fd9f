package config

import (
    "context"
    "crypto/tls"
    "log"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds the shared Redis client used by the rate limiter
// and the browse-endpoint response cache. It reads REDIS_ADDR (or
// REDIS_HOST/REDIS_PORT), REDIS_PASSWORD, REDIS_DB and REDIS_TLS. Redis is
// optional here: when the ping fails the function logs and returns nil,
// and both middlewares switch themselves off.
func NewRedisClient() *redis.Client {
    addr := envStr("REDIS_ADDR", "")
    if host := envStr("REDIS_HOST", ""); host != "" {
        addr = host + ":" + envStr("REDIS_PORT", "6379")
    }
    if addr == "" {
        addr = "localhost:6379"
    }

    opts := &redis.Options{
        Addr:         addr,
        Password:     envStr("REDIS_PASSWORD", ""),
        DB:           envInt("REDIS_DB", 0),
        DialTimeout:  2 * time.Second,
        ReadTimeout:  500 * time.Millisecond,
        WriteTimeout: 500 * time.Millisecond,
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis unavailable at %s, rate limiting and caching disabled: %v", addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
