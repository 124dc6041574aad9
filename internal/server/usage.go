package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
)

func (s *Server) GetUsage(c *gin.Context) {
	host := queryHostname(c)
	if host == "" {
		AbortWithError(c, usagedomain.ErrInvalidHostname)
		return
	}

	record, err := s.usageSvc.GetUsage(c.Request.Context(), host)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) GetAvailability(c *gin.Context) {
	host := queryHostname(c)
	if host == "" {
		AbortWithError(c, usagedomain.ErrInvalidHostname)
		return
	}

	availability, err := s.usageSvc.CheckAvailability(c.Request.Context(), host)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (s *Server) InitializeUsage(c *gin.Context) {
	var req usagedomain.InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if host := resolveHostname(c, req.Hostname); host != "" {
		req.Hostname = host
	}

	record, err := s.usageSvc.InitializeUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.counters.Seed(record.Hostname, record.TokensUsed, record.Interactions)
	c.JSON(http.StatusOK, record)
}

type resetUsageRequest struct {
	Hostname string `json:"hostname"`
}

func (s *Server) ResetUsage(c *gin.Context) {
	var req resetUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	host := resolveHostname(c, req.Hostname)
	if host == "" {
		AbortWithError(c, usagedomain.ErrInvalidHostname)
		return
	}

	record, err := s.usageSvc.ResetUsage(c.Request.Context(), host)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.counters.Seed(record.Hostname, record.TokensUsed, record.Interactions)
	c.JSON(http.StatusOK, record)
}
