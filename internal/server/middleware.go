package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/webchatkit/webchatkit/internal/hostname"
)

const contextHostnameKey = "hostname"

// resolveHostname derives the site identity for a request: an explicit
// value wins, then the Origin header, then Referer. Empty means the caller
// supplied nothing usable.
func resolveHostname(c *gin.Context, explicit string) string {
	if host := hostname.Normalize(explicit); host != "" {
		c.Set(contextHostnameKey, host)
		return host
	}
	for _, header := range []string{"Origin", "Referer"} {
		if host := hostname.FromURL(c.GetHeader(header)); host != "" {
			c.Set(contextHostnameKey, host)
			return host
		}
	}
	return ""
}

// queryHostname reads the hostname query parameter, falling back to the
// request headers.
func queryHostname(c *gin.Context) string {
	return resolveHostname(c, strings.TrimSpace(c.Query("hostname")))
}
