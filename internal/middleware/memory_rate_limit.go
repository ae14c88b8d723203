package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor хранит limiter и время последнего запроса для одного ключа
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter ограничивает частоту запросов в памяти процесса.
// Используется, когда Redis не настроен.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	idleTTL  time.Duration
}

// NewMemoryRateLimiter создает limiter и запускает очистку неактивных ключей
// до отмены ctx.
func NewMemoryRateLimiter(ctx context.Context, idleTTL time.Duration) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		visitors: make(map[string]*visitor),
		idleTTL:  idleTTL,
	}
	go rl.cleanupVisitors(ctx)
	return rl
}

func (rl *MemoryRateLimiter) getVisitor(key string, cfg RateLimitConfig) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		// Ведро на MaxRequests запросов, полностью пополняется за Window
		every := cfg.Window / time.Duration(cfg.MaxRequests)
		limiter := rate.NewLimiter(rate.Every(every), cfg.MaxRequests)
		v = &visitor{limiter: limiter}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *MemoryRateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > rl.idleTTL {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Limit возвращает Gin middleware с теми же заголовками и ответом, что и RateLimiter
func (rl *MemoryRateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		path := routePath(c)
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, clientIP, path)

		limiter := rl.getVisitor(key, cfg)
		allowed := limiter.Allow()

		remaining := int(math.Floor(limiter.Tokens()))
		if remaining < 0 {
			remaining = 0
		}
		retryAfter := int(math.Ceil(cfg.Window.Seconds() / float64(cfg.MaxRequests)))

		setRateLimitHeaders(c, cfg.MaxRequests, remaining, retryAfter)

		if !allowed {
			log.Printf("[RateLimiter] In-memory limit exceeded for IP=%s path=%s. Limit=%d",
				clientIP, path, cfg.MaxRequests)
			abortRateLimited(c, retryAfter)
			return
		}

		c.Next()
	}
}
