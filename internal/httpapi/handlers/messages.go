package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/chat"
)

type sendMessageReq struct {
	// ChatID is either the numeric id or the public id.
	ChatID   json.RawMessage `json:"chatId" binding:"required"`
	Content  string          `json:"content" binding:"required"`
	Username string          `json:"username" binding:"required"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	ref, ok := chatRef(req.ChatID)
	if !ok {
		fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	msgs, err := h.ChatSvc.SendMessage(c.Request.Context(), chat.SendInput{
		ChatRef:  ref,
		Content:  req.Content,
		Username: req.Username,
	})
	if err != nil {
		h.failErr(c, err, "Failed to process message")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// chatRef accepts a JSON string or a JSON number with an integral value
// (12, 12.0 and 1.2e1 all name chat 12).
func chatRef(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}
