package handler

import (
	"net/http"
	"time"

	"github.com/cryptosim-ai/internal/middleware"
	"github.com/cryptosim-ai/internal/models"
	"github.com/cryptosim-ai/internal/service"
	"github.com/cryptosim-ai/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// ChatHandler handles the chat widget: message history, posting, and the
// websocket push path
type ChatHandler struct {
	chatService *service.ChatService
	upgrader    websocket.Upgrader
	log         *logrus.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the frontend is served from a different origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// SendMessageRequest is the request body for posting a chat message
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,min=1,max=2000"`
}

// SendMessage posts a chat message
// POST /api/v1/chat/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	fromAdmin := middleware.GetRole(c) == models.RoleAdmin

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), userID, req.Body, fromAdmin)
	if err != nil {
		response.InternalError(c, "failed to send message")
		return
	}

	response.Created(c, msg)
}

// GetMessages returns chat history; with ?after= it acts as the polling
// fallback for clients without a websocket
// GET /api/v1/chat/messages?after=2026-08-31T00:00:00Z
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if q := c.Query("after"); q != "" {
		after, err := time.Parse(time.RFC3339, q)
		if err != nil {
			response.BadRequest(c, "invalid after timestamp, expected RFC3339")
			return
		}
		msgs, err := h.chatService.GetMessagesAfter(userID, after, 100)
		if err != nil {
			response.InternalError(c, "failed to load messages")
			return
		}
		response.Success(c, msgs)
		return
	}

	msgs, err := h.chatService.GetRecentMessages(userID, 50)
	if err != nil {
		response.InternalError(c, "failed to load messages")
		return
	}
	response.Success(c, msgs)
}

// Websocket upgrades the connection and streams the user's chat channel.
// Messages received on the socket are posted as the user's messages.
// GET /api/v1/chat/ws
func (h *ChatHandler) Websocket(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	sub := h.chatService.Subscribe(ctx, userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, sub.Channel())
	}()

	// reader: socket -> stored messages
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if len(data) == 0 {
			continue
		}
		if _, err := h.chatService.SendMessage(ctx, userID, string(data), false); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Warn("failed to store chat message")
		}
	}

	// closing the subscription closes its channel, which ends the writer
	if err := sub.Close(); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("failed to close chat subscription")
	}
	<-done
}

// writePump forwards subscription messages to the socket and keeps the
// connection alive with pings. It returns when src closes or a write
// fails.
func (h *ChatHandler) writePump(conn *websocket.Conn, src <-chan *redis.Message) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-src:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	chat := rg.Group("/chat")
	chat.Use(authMiddleware)
	{
		chat.GET("/messages", h.GetMessages)
		chat.POST("/messages", h.SendMessage)
		chat.GET("/ws", h.Websocket)
	}
}
