package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/webchatkit/webchatkit/internal/contact"
	"github.com/webchatkit/webchatkit/internal/providers/email"
)

type conversationEmailRequest struct {
	Hostname     string       `json:"hostname"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Conversation []email.Turn `json:"conversation"`
}

type conversationEmailResponse struct {
	Success bool `json:"success"`
}

func (s *Server) SendConversationEmail(c *gin.Context) {
	var req conversationEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	info := contact.Info{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Phone: strings.TrimSpace(req.Phone),
	}
	if info.Empty() {
		// Fall back to whatever the visitor typed into the transcript.
		for _, turn := range req.Conversation {
			if detected := contact.Detect(turn.Content); !detected.Empty() {
				info = detected
				break
			}
		}
	}

	err := s.email.SendConversation(c.Request.Context(), email.ConversationEmail{
		Hostname:   resolveHostname(c, req.Hostname),
		Contact:    info,
		Transcript: req.Conversation,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationEmailResponse{Success: true})
}
