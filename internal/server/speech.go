package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/webchatkit/webchatkit/internal/providers/speech"
)

func (s *Server) Synthesize(c *gin.Context) {
	var req speech.SynthesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	audio, err := s.speech.Synthesize(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer audio.Close()

	c.Header("Content-Type", "audio/mpeg")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, audio); err != nil {
		s.log.Warn("tts stream interrupted")
	}
}

func (s *Server) Transcribe(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		AbortWithError(c, speech.ErrMissingAudio)
		return
	}
	defer file.Close()

	transcription, err := s.speech.Transcribe(c.Request.Context(), file, header.Filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcription)
}
