package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/chat"
)

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.ChatSvc.ListChats(c.Request.Context())
	if err != nil {
		h.failErr(c, err, "Failed to fetch chats")
		return
	}
	if chats == nil {
		chats = []chat.Chat{}
	}
	c.JSON(http.StatusOK, chats)
}

func (h *Handler) GetChat(c *gin.Context) {
	ch, err := h.ChatSvc.GetChat(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		h.failErr(c, err, "Failed to fetch chat")
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	msgs, err := h.ChatSvc.ListMessages(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		h.failErr(c, err, "Failed to fetch messages")
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

type createChatReq struct {
	Title string `json:"title" binding:"required"`
	Model string `json:"model" binding:"required"`
}

func (h *Handler) CreateChat(c *gin.Context) {
	var req createChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	ch, err := h.ChatSvc.CreateChat(c.Request.Context(), req.Title, req.Model)
	if err != nil {
		h.failErr(c, err, "Failed to create chat")
		return
	}
	c.JSON(http.StatusOK, ch)
}

// pointers tell an omitted field from an empty one
type updateChatReq struct {
	Title *string `json:"title"`
	Model *string `json:"model"`
}

func (h *Handler) UpdateChat(c *gin.Context) {
	id, ok := chatIDParam(c)
	if !ok {
		fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	var req updateChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	ch, err := h.ChatSvc.UpdateChat(c.Request.Context(), id, chat.ChatUpdate{Title: req.Title, Model: req.Model})
	if err != nil {
		h.failErr(c, err, "Failed to update chat")
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) DeleteChat(c *gin.Context) {
	id, ok := chatIDParam(c)
	if !ok {
		fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if err := h.ChatSvc.DeleteChat(c.Request.Context(), id); err != nil {
		h.failErr(c, err, "Failed to delete chat")
		return
	}
	c.Status(http.StatusNoContent)
}

func chatIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
