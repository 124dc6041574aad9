package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/webchatkit/webchatkit/internal/config"
	"github.com/webchatkit/webchatkit/internal/langdetect"
	"go.uber.org/zap"
)

// voiceByLanguage picks the synthesis voice per widget language.
var voiceByLanguage = map[string]string{
	langdetect.Portuguese: "nova",
	langdetect.English:    "alloy",
	langdetect.Spanish:    "echo",
	langdetect.French:     "fable",
	langdetect.German:     "onyx",
}

const defaultVoice = "alloy"

// languageCodes maps the transcription endpoint's language names to the
// widget's ISO codes.
var languageCodes = map[string]string{
	"portuguese": langdetect.Portuguese,
	"english":    langdetect.English,
	"spanish":    langdetect.Spanish,
	"french":     langdetect.French,
	"german":     langdetect.German,
}

type OpenAIProvider struct {
	cfg    config.OpenAIConfig
	log    *zap.Logger
	client *http.Client
}

func NewOpenAI(cfg config.OpenAIConfig, log *zap.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:    cfg,
		log:    log.Named("providers.speech"),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// VoiceFor returns the synthesis voice for a language code.
func VoiceFor(language string) string {
	if voice, ok := voiceByLanguage[language]; ok {
		return voice
	}
	return defaultVoice
}

func (p *OpenAIProvider) Synthesize(ctx context.Context, req SynthesisRequest) (io.ReadCloser, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingText
	}
	if p.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(map[string]any{
		"model":           p.cfg.TTSModel,
		"input":           req.Text,
		"voice":           VoiceFor(req.Language),
		"response_format": "mp3",
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(p.cfg.BaseURL, "/")+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("synthesis_failed_status_%d", resp.StatusCode)
	}
	return resp.Body, nil
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (p *OpenAIProvider) Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcription, error) {
	if audio == nil {
		return nil, ErrMissingAudio
	}
	if p.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, err
	}
	if err := writer.WriteField("model", p.cfg.STTModel); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(p.cfg.BaseURL, "/")+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("transcription_failed_status_%d", resp.StatusCode)
	}

	var transcription transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcription); err != nil {
		return nil, fmt.Errorf("decode transcription: %w", err)
	}
	return &Transcription{
		Text:     transcription.Text,
		Language: languageCode(transcription.Language),
	}, nil
}

func languageCode(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if code, ok := languageCodes[normalized]; ok {
		return code
	}
	// The endpoint may already answer with an ISO code.
	for _, code := range languageCodes {
		if normalized == code {
			return code
		}
	}
	return langdetect.English
}
