package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/kasirku/internal/config"
)

// TooManyAttemptsMessage is the body of a 429 response.
const TooManyAttemptsMessage = "Too many attempts, please wait before trying again"

// tokenBucketScript refills the bucket in whole intervals and takes one
// token.  It runs atomically in Redis so every app instance shares one
// budget per key.  Returns {allowed, tokens_left, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])
    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + intervals * refill_tokens)
            last_refill = last_refill + intervals * interval_ms
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

// bucketResult is the decoded reply of tokenBucketScript.
type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func parseBucketResult(v interface{}) (bucketResult, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	return bucketResult{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, true
}

// NewTokenBucket throttles the credential form posts with a Redis-backed
// token bucket.  A nil client or a disabled config yields a pass-through
// middleware, and Redis errors fail open so an outage never locks users out.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttlSeconds := int64(cfg.TTL / time.Second)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			reply, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttlSeconds,
			).Result()
			if err != nil {
				zap.L().Warn("ratelimit: redis error", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			res, ok := parseBucketResult(reply)
			if !ok {
				zap.L().Warn("ratelimit: unexpected script result", zap.String("key", key), zap.Any("result", reply))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !res.allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(res.retry.Seconds()))))
				zap.L().Info("ratelimit: blocked", zap.String("key", key), zap.Duration("retry", res.retry))
				return c.String(http.StatusTooManyRequests, TooManyAttemptsMessage)
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey names the bucket for this request.  Login attempts are
// anonymous, so the ip-based strategies are the useful ones here.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userKey(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
