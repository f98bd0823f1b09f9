package httpapi

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/ai-chat/internal/logger"
	"github.com/suPer8Hu/ai-chat/internal/ratelimit"
)

type RouterConfig struct {
	ChatSvc *chat.Service
	Log     *logger.Logger

	Limiter      ratelimit.Limiter
	LimitKey     middleware.KeyFunc
	LimitWindow  time.Duration
	AllowOrigins []string

	// TrustedProxies may set X-Forwarded-For. nil trusts none.
	TrustedProxies []string
}

type endpoint struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.LimitKey == nil {
		cfg.LimitKey = middleware.GlobalKey
	}
	if cfg.LimitWindow <= 0 {
		cfg.LimitWindow = ratelimit.DefaultWindow
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		cfg.Log.Error("invalid trusted proxies, trusting none", "proxies", cfg.TrustedProxies, "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(cfg.Log))
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	h := handlers.NewHandler(cfg.ChatSvc, cfg.Log)
	limit := middleware.RateLimit(cfg.Limiter, cfg.LimitKey, cfg.LimitWindow, cfg.Log)

	for _, ep := range endpoints(h, limit) {
		r.Handle(ep.method, ep.path, ep.handlers...)
	}
	return r
}

func endpoints(h *handlers.Handler, limit gin.HandlerFunc) []endpoint {
	return []endpoint{
		{http.MethodGet, "/healthz", []gin.HandlerFunc{handlers.Healthz}},

		// chats
		{http.MethodGet, "/api/chats", []gin.HandlerFunc{h.ListChats}},
		{http.MethodGet, "/api/chats/:identifier", []gin.HandlerFunc{h.GetChat}},
		{http.MethodGet, "/api/chats/:identifier/messages", []gin.HandlerFunc{h.ListChatMessages}},
		{http.MethodPost, "/api/chats", []gin.HandlerFunc{h.CreateChat}},
		{http.MethodPatch, "/api/chats/:id", []gin.HandlerFunc{h.UpdateChat}},
		{http.MethodDelete, "/api/chats/:id", []gin.HandlerFunc{h.DeleteChat}},

		// messages
		{http.MethodPost, "/api/messages", []gin.HandlerFunc{limit, h.SendMessage}},
	}
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "RateLimit-Policy", "Retry-After", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}
