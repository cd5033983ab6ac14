package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/google/uuid"
	"github.com/hertz-contrib/cors"

	"blog-platform/pkg/common/config"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

type ctxKey struct{}

// RequestIDMiddleware tags every request with an id, reusing a client supplied one.
func RequestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Response.Header.Set(RequestIDHeader, id)
		ctx.Next(context.WithValue(c, ctxKey{}, id))
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c context.Context) string {
	id, _ := c.Value(ctxKey{}).(string)
	return id
}

// LoggerMiddleware writes one access log line per request.
func LoggerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		latency := time.Since(start)

		status := ctx.Response.StatusCode()
		errMsg := ""
		if last := ctx.Errors.Last(); last != nil {
			errMsg = last.Error()
		}

		format := "| %3d | %13v | %15s | %-7s | %s | rid=%s err=%q"
		args := []interface{}{status, latency, ctx.ClientIP(), ctx.Method(), ctx.Path(), ctx.GetString(requestIDKey), errMsg}
		switch {
		case status >= 500:
			hlog.CtxErrorf(c, format, args...)
		case status >= 400:
			hlog.CtxWarnf(c, format, args...)
		default:
			hlog.CtxInfof(c, format, args...)
		}
	}
}

// RecoveryMiddleware turns panics into 500 responses. Outside production the
// body carries the panic value and the stack.
func RecoveryMiddleware(cfg *config.Config) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				hlog.CtxErrorf(c, "[PANIC RECOVERED] rid=%s %v\n%s", ctx.GetString(requestIDKey), err, stack)

				if cfg.IsProd() {
					ctx.AbortWithStatusJSON(500, utils.H{
						"error":   "InternalError",
						"message": "internal server error",
					})
				} else {
					ctx.AbortWithStatusJSON(500, utils.H{
						"error":   "InternalError",
						"message": fmt.Sprintf("%v", err),
						"stack":   strings.Split(stack, "\n"),
					})
				}
			}
		}()
		ctx.Next(c)
	}
}

// CORSMiddleware applies the configured cross-origin policy.
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	cc := cors.Config{
		AllowOrigins:     corsConfig.AllowOrigins,
		AllowMethods:     corsConfig.AllowMethods,
		AllowHeaders:     corsConfig.AllowHeaders,
		ExposeHeaders:    corsConfig.ExposeHeaders,
		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           corsConfig.MaxAge,
	}
	if len(corsConfig.TrustedDomains) > 0 {
		// trusted domains replace the static origin list
		cc.AllowOrigins = nil
		cc.AllowOriginFunc = func(origin string) bool {
			for _, domain := range corsConfig.TrustedDomains {
				if strings.HasSuffix(origin, domain) {
					return true
				}
			}
			return false
		}
	}
	return cors.New(cc)
}

// TimeoutMiddleware puts a deadline on the request context. Storage and the
// moderation gate observe it; handlers map an expired deadline to 503.
func TimeoutMiddleware(seconds int) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if seconds <= 0 {
			ctx.Next(c)
			return
		}
		timeoutCtx, cancel := context.WithTimeout(c, time.Duration(seconds)*time.Second)
		defer cancel()

		ctx.Next(timeoutCtx)

		if timeoutCtx.Err() == context.DeadlineExceeded {
			hlog.CtxWarnf(c, "request timeout path=%s rid=%s", ctx.Path(), ctx.GetString(requestIDKey))
		}
	}
}

// RateLimitMiddleware rejects requests once the token bucket is empty. A
// non-positive rate disables it.
func RateLimitMiddleware(rate int, interval time.Duration) app.HandlerFunc {
	if rate <= 0 || interval <= 0 {
		return func(c context.Context, ctx *app.RequestContext) {
			ctx.Next(c)
		}
	}
	limiter := NewTokenBucket(rate, interval)

	return func(c context.Context, ctx *app.RequestContext) {
		if !limiter.Allow() {
			hlog.CtxInfof(c, "[RATE LIMIT] path=%s", ctx.Path())
			ctx.AbortWithStatusJSON(429, utils.H{
				"error":   "Throttled",
				"message": "too many requests",
			})
			return
		}
		ctx.Next(c)
	}
}

// TokenBucket starts full and gains one token per interval up to capacity.
type TokenBucket struct {
	capacity int
	tokens   chan struct{}
	rate     time.Duration
}

func NewTokenBucket(rate int, interval time.Duration) *TokenBucket {
	tb := &TokenBucket{
		capacity: rate,
		tokens:   make(chan struct{}, rate),
		rate:     interval,
	}
	for i := 0; i < rate; i++ {
		tb.tokens <- struct{}{}
	}

	go func() {
		ticker := time.NewTicker(tb.rate)
		for range ticker.C {
			select {
			case tb.tokens <- struct{}{}:
			default:
			}
		}
	}()
	return tb
}

func (tb *TokenBucket) Allow() bool {
	select {
	case <-tb.tokens:
		return true
	default:
		return false
	}
}

// SecurityCheckMiddleware enforces the body size limit and the method allowlist.
// Request content is not inspected: posts legitimately contain markup and SQL.
func SecurityCheckMiddleware(sec config.SecurityConfig) app.HandlerFunc {
	allowed := make(map[string]bool, len(sec.AllowedMethods))
	for _, m := range sec.AllowedMethods {
		allowed[strings.ToUpper(m)] = true
	}

	return func(c context.Context, ctx *app.RequestContext) {
		if sec.MaxBodySize > 0 && int64(ctx.Request.Header.ContentLength()) > sec.MaxBodySize {
			securityResponse(c, ctx, "PayloadTooLarge", "request body exceeds max size", 413)
			return
		}

		if len(allowed) > 0 && !allowed[string(ctx.Method())] {
			securityResponse(c, ctx, "MethodNotAllowed", "method not allowed", 405)
			return
		}

		ctx.Next(c)
	}
}

func securityResponse(c context.Context, ctx *app.RequestContext, code, msg string, status int) {
	hlog.CtxWarnf(c, "SecurityAlert[%s]: %s path=%s", code, msg, ctx.Path())
	ctx.AbortWithStatusJSON(status, utils.H{
		"error":   code,
		"message": msg,
	})
}
