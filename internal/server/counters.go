package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// DisplayCounters holds the in-memory counts the widget's counter views
// read. They mirror, but do not replace, the persisted usage record:
// each accounted chat turn bumps them, and the widget polls them for
// cheap display updates between full usage reads.
type DisplayCounters struct {
	mu           sync.RWMutex
	tokens       map[string]int64
	interactions map[string]int64
}

func NewDisplayCounters() *DisplayCounters {
	return &DisplayCounters{
		tokens:       make(map[string]int64),
		interactions: make(map[string]int64),
	}
}

func (d *DisplayCounters) AddTokens(hostname string, delta int64) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens[hostname] += delta
	return d.tokens[hostname]
}

func (d *DisplayCounters) AddInteractions(hostname string, delta int64) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interactions[hostname] += delta
	return d.interactions[hostname]
}

func (d *DisplayCounters) Tokens(hostname string) int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tokens[hostname]
}

func (d *DisplayCounters) Interactions(hostname string) int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.interactions[hostname]
}

func (d *DisplayCounters) ResetTokens(hostname string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tokens, hostname)
}

func (d *DisplayCounters) ResetInteractions(hostname string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.interactions, hostname)
}

// Seed overwrites both counters for a hostname, used when a fresh usage
// read should become the new display baseline.
func (d *DisplayCounters) Seed(hostname string, tokens, interactions int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens[hostname] = tokens
	d.interactions[hostname] = interactions
}

type counterRequest struct {
	Hostname string `json:"hostname"`
	Delta    int64  `json:"delta"`
}

type counterResponse struct {
	Hostname string `json:"hostname"`
	Value    int64  `json:"value"`
}

func (s *Server) GetTokenCounter(c *gin.Context) {
	host := queryHostname(c)
	if host == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	c.JSON(http.StatusOK, counterResponse{Hostname: host, Value: s.counters.Tokens(host)})
}

func (s *Server) IncrementTokenCounter(c *gin.Context) {
	var req counterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	host := resolveHostname(c, req.Hostname)
	if host == "" || req.Delta < 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	c.JSON(http.StatusOK, counterResponse{Hostname: host, Value: s.counters.AddTokens(host, req.Delta)})
}

func (s *Server) ResetTokenCounter(c *gin.Context) {
	host := queryHostname(c)
	if host == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	s.counters.ResetTokens(host)
	c.JSON(http.StatusOK, counterResponse{Hostname: host, Value: 0})
}

func (s *Server) GetInteractionCounter(c *gin.Context) {
	host := queryHostname(c)
	if host == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	c.JSON(http.StatusOK, counterResponse{Hostname: host, Value: s.counters.Interactions(host)})
}

func (s *Server) IncrementInteractionCounter(c *gin.Context) {
	var req counterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	host := resolveHostname(c, req.Hostname)
	if host == "" || req.Delta < 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	c.JSON(http.StatusOK, counterResponse{Hostname: host, Value: s.counters.AddInteractions(host, req.Delta)})
}

func (s *Server) ResetInteractionCounter(c *gin.Context) {
	host := queryHostname(c)
	if host == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	s.counters.ResetInteractions(host)
	c.JSON(http.StatusOK, counterResponse{Hostname: host, Value: 0})
}
