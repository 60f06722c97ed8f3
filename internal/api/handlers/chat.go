package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itera/chatbot-service/internal/api/dto"
	"github.com/itera/chatbot-service/internal/api/middleware"
	domainerrors "github.com/itera/chatbot-service/internal/domain/errors"
	"github.com/itera/chatbot-service/internal/services/chat"
)

// RateLimitedMessage is shown to visitors over the hourly IP window.
const RateLimitedMessage = "Troppe richieste. Riprova tra un'ora."

// ChatService runs chat turns.
type ChatService interface {
	Start(ctx context.Context, sessionID string) (*chat.Reply, error)
	HandleMessage(ctx context.Context, sessionID, clientIP, message string) (*chat.Reply, error)
}

// ChatHandler handles the widget endpoint.
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Chat handles POST /api/chat
// @Summary Chat turn
// @Description Starts a conversation or sends a visitor message
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat request"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 429 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewInvalidActionError(err.Error()))
		return
	}

	var (
		reply *chat.Reply
		err   error
	)
	switch {
	case req.Action == dto.ActionStart:
		reply, err = h.chatService.Start(ctx, req.SessionID)
	case req.Action == dto.ActionMessage && req.Message != "":
		reply, err = h.chatService.HandleMessage(ctx, req.SessionID, c.ClientIP(), req.Message)
	default:
		middleware.HandleError(c, domainerrors.NewInvalidActionError(req.Action))
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRateLimited):
			middleware.HandleError(c, domainerrors.NewRateLimitedError(RateLimitedMessage, time.Hour))
		case errors.Is(err, chat.ErrEmptyMessage):
			middleware.HandleError(c, domainerrors.NewInvalidActionError(err.Error()))
		default:
			middleware.HandleError(c, domainerrors.NewInternalError("Errore interno del server", err))
		}
		return
	}

	middleware.SetSessionID(c, reply.SessionID)
	c.JSON(http.StatusOK, toChatResponse(reply))
}

func toChatResponse(r *chat.Reply) dto.ChatResponse {
	return dto.ChatResponse{
		Success:    true,
		SessionID:  r.SessionID,
		Response:   r.Response,
		Options:    r.Options,
		Step:       r.Step,
		Intent:     r.Intent,
		Confidence: r.Confidence,
		Escalate:   r.Escalate,
		Priority:   r.Priority,
		Source:     r.Source,
		Cost:       r.Cost,
		Cached:     r.Cached,
		UsedAI:     r.UsedAI(),
		LeadScore:  r.LeadScore,
	}
}
