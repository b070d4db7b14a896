package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
// 超出阈值后窗口延长为 BlockSeconds
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	Message       string
}

const (
	defaultRateLimitMessage   = "Too many requests from this IP, please try again later."
	rateLimitUnavailableMsg   = "Rate limiter is temporarily unavailable"
	rateLimitRetryAfterHeader = "Retry-After"
)

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
if current == tonumber(ARGV[2]) + 1 and tonumber(ARGV[3]) > 0 then
	redis.call("EXPIRE", KEYS[1], ARGV[3])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 频率限制中间件，未配置客户端或规则时直接放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := rule.key(c, keyFunc)
		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{key},
			rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds).Int64Slice()
		if err != nil {
			logger.Errorw("rate_limit_script_failed", "key", key, "error", err)
		}
		count, ttlSeconds, ok := rateLimitCounters(values)
		if err != nil || !ok {
			response.Error(c, response.CodeInternal, rateLimitUnavailableMsg)
			c.Abort()
			return
		}
		if verdict := rule.evaluate(count, ttlSeconds); verdict.blocked {
			c.Header(rateLimitRetryAfterHeader, strconv.Itoa(verdict.retryAfter))
			response.Error(c, response.CodeTooManyRequests, verdict.message)
			c.Abort()
			return
		}
		c.Next()
	}
}

// rateLimitCounters 拆出脚本返回的计数与剩余 TTL
func rateLimitCounters(values []int64) (count, ttlSeconds int64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	return values[0], values[1], true
}

type rateLimitVerdict struct {
	blocked    bool
	retryAfter int
	message    string
}

// evaluate 根据窗口内计数与剩余 TTL 判定是否拦截
func (r RateLimitRule) evaluate(count, ttlSeconds int64) rateLimitVerdict {
	if count <= int64(r.MaxRequests) {
		return rateLimitVerdict{}
	}
	wait := int(ttlSeconds)
	if wait < 1 {
		wait = r.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = defaultRateLimitMessage
	}
	return rateLimitVerdict{blocked: true, retryAfter: wait, message: msg}
}

func (r RateLimitRule) key(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if r.Prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.Prefix, key)
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// readJSONField 读取 JSON 请求体中的字符串字段，读取后还原请求体供后续绑定
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := c.GetRawData()
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var payload map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	var text string
	if raw, ok := payload[field]; !ok || json.Unmarshal(raw, &text) != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
