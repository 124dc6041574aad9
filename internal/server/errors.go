package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
	chatdomain "github.com/webchatkit/webchatkit/internal/chat/domain"
	"github.com/webchatkit/webchatkit/internal/providers/email"
	"github.com/webchatkit/webchatkit/internal/providers/llm"
	"github.com/webchatkit/webchatkit/internal/providers/speech"
	"github.com/webchatkit/webchatkit/internal/session"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUnauthorized   = errors.New("unauthorized")
)

// ErrorHandlingMiddleware translates domain errors collected during the
// request into the HTTP error contract.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type: "internal_error", Message: "internal server error",
		}

	// Malformed input is rejected before any remote call.
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, usagedomain.ErrInvalidHostname),
		errors.Is(err, usagedomain.ErrInvalidIncrement),
		errors.Is(err, chatdomain.ErrMissingMessage),
		errors.Is(err, llm.ErrMissingMessage),
		errors.Is(err, speech.ErrMissingText),
		errors.Is(err, speech.ErrMissingAudio),
		errors.Is(err, email.ErrMissingContact),
		errors.Is(err, email.ErrMissingTranscript):
		return http.StatusBadRequest, errorPayload{
			Type: "validation_error", Message: errMessage(err),
		}

	case errors.Is(err, ErrUnauthorized), errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type: "unauthorized", Message: "unauthorized",
		}

	// Never provisioned: retrying will not help without admin action.
	case errors.Is(err, usagedomain.ErrHostnameNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type: "not_provisioned", Message: "no usage record for this hostname",
		}

	case errors.Is(err, usagedomain.ErrBotDisabled):
		return http.StatusForbidden, errorPayload{
			Type: "bot_disabled", Message: "the bot is disabled for this hostname",
		}

	case errors.Is(err, usagedomain.ErrInteractionLimitExceeded):
		return http.StatusTooManyRequests, errorPayload{
			Type: "quota_exceeded", Message: "interaction quota exhausted",
		}

	case errors.Is(err, chatdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type: "rate_limited", Message: "too many requests, slow down",
		}

	case errors.Is(err, llm.ErrMissingAPIKey),
		errors.Is(err, speech.ErrMissingAPIKey),
		errors.Is(err, email.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type: "service_unavailable", Message: "upstream provider is not configured",
		}

	case errors.Is(err, llm.ErrEmptyReply):
		return http.StatusBadGateway, errorPayload{
			Type: "upstream_error", Message: "the model returned no reply",
		}

	default:
		// Transport and unexpected failures: generic, retry-suggesting.
		return http.StatusInternalServerError, errorPayload{
			Type: "internal_error", Message: "something went wrong, please try again",
		}
	}
}

func errMessage(err error) string {
	if err == nil {
		return "invalid request"
	}
	return err.Error()
}

// classifyErrorForLog feeds the request logger's error fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "server_error", payload.Type
	}
	return "client_error", payload.Type
}
