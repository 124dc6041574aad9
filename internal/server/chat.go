package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	chatdomain "github.com/webchatkit/webchatkit/internal/chat/domain"
)

func (s *Server) Chat(c *gin.Context) {
	var req chatdomain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	host := resolveHostname(c, req.Hostname)
	if host == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.Hostname = host

	resp, err := s.chatSvc.Chat(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp.AccountingRecorded {
		s.counters.AddTokens(host, resp.TokensUsed)
		s.counters.AddInteractions(host, 1)
	}
	c.JSON(http.StatusOK, resp)
}
