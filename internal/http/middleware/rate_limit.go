package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/ctxutil"
)

const defaultLimiterClients = 10000

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// MaxClients bounds the number of tracked callers; the least recently
	// seen caller is forgotten first.
	MaxClients int
}

// RateLimiter keeps one token bucket per caller. A bucket holds Requests
// tokens and refills over Window.
type RateLimiter struct {
	cfg     RateLimitConfig
	metrics *observability.Metrics
	now     func() time.Time

	mu      sync.Mutex
	clients *lru.Cache[string, *rate.Limiter]
}

func NewRateLimiter(cfg RateLimitConfig, metrics *observability.Metrics) (*RateLimiter, error) {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit requires positive requests and window")
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultLimiterClients
	}
	clients, err := lru.New[string, *rate.Limiter](cfg.MaxClients)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{cfg: cfg, metrics: metrics, now: time.Now, clients: clients}, nil
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.clients.Get(key); ok {
		return lim
	}
	every := l.cfg.Window / time.Duration(l.cfg.Requests)
	lim := rate.NewLimiter(rate.Every(every), l.cfg.Requests)
	l.clients.Add(key, lim)
	return lim
}

// Allow reports whether key may proceed now and, if not, how long to wait.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	res := l.limiter(key).ReserveN(l.now(), 1)
	if !res.OK() {
		return false, l.cfg.Window
	}
	delay := res.DelayFrom(l.now())
	if delay > 0 {
		res.CancelAt(l.now())
		return false, delay
	}
	return true, 0
}

// clientKey is the client IP plus the self-declared user id, if any.
func clientKey(c *gin.Context) string {
	key := c.ClientIP()
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != "" {
		key += ":" + rd.UserID
	}
	return key
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ok, wait := l.Allow(clientKey(c))
		if ok {
			c.Next()
			return
		}
		l.metrics.IncRateLimited(c.FullPath())
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate_limited",
			"message": fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %d seconds.",
				l.cfg.Requests, int(l.cfg.Window.Seconds())),
		})
	}
}
