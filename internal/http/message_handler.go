package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-sync/internal/domain"
	"chat-sync/internal/repository"
	"chat-sync/internal/service"
)

// Pinger chequea la conectividad del store para el endpoint de salud.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MessageHandler mantiene dependencias para los endpoints de mensajería.
type MessageHandler struct {
	logger        *zap.Logger
	messages      repository.MessageRepository
	conversations *service.ConversationService
	sender        *service.SendService
	pinger        Pinger
}

// NewMessageHandler crea una instancia de MessageHandler con las dependencias
// necesarias.
func NewMessageHandler(
	logger *zap.Logger,
	messages repository.MessageRepository,
	conversations *service.ConversationService,
	sender *service.SendService,
	pinger Pinger,
) *MessageHandler {
	return &MessageHandler{
		logger:        logger,
		messages:      messages,
		conversations: conversations,
		sender:        sender,
		pinger:        pinger,
	}
}

// GetConversations maneja GET /api/conversations.
func (h *MessageHandler) GetConversations(c *gin.Context) {
	conversations, err := h.conversations.ListConversations(c.Request.Context())
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetMessages maneja GET /api/messages/:wa_id.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	waID := c.Param("wa_id")
	messages, err := h.messages.ListByWaID(c.Request.Context(), waID)
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err), zap.String("wa_id", waID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage maneja POST /api/send.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		WaID string `json:"wa_id" binding:"required"`
		Name string `json:"name" binding:"required"`
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.sender.Send(c.Request.Context(), req.WaID, req.Name, req.Body)
	if errors.Is(err, service.ErrSendInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wa_id, name and body are required"})
		return
	}
	if err != nil {
		h.logger.Error("send message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Health maneja GET /health.
func (h *MessageHandler) Health(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
