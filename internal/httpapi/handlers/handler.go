package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/ai-chat/internal/logger"
)

const (
	msgInvalidRequest = "Invalid request"
	msgChatNotFound   = "Chat not found"
)

type Handler struct {
	ChatSvc *chat.Service
	log     *logger.Logger
}

func NewHandler(svc *chat.Service, log *logger.Logger) *Handler {
	return &Handler{ChatSvc: svc, log: log.With("component", "handlers")}
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// failErr maps an error kind to a status. Unexpected errors are logged and
// answered with the generic fallback message.
func (h *Handler) failErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		fail(c, http.StatusBadRequest, msgInvalidRequest)
	case errors.Is(err, chat.ErrNotFound):
		fail(c, http.StatusNotFound, msgChatNotFound)
	case errors.Is(err, chat.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, "Too many requests, please try again later.")
	default:
		h.log.Error(fallback,
			"request_id", c.GetString(middleware.RequestIDKey),
			"path", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, fallback)
	}
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
