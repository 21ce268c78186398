package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"revoice/internal/domain"
	"revoice/internal/ports"
)

// Client implements ports.BackendClient against the voice-translation backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// Config controls backend connectivity.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

var _ ports.BackendClient = (*Client)(nil)

type uploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type transcriptResponse struct {
	CorrectedTranscript string `json:"corrected_transcript"`
	DetectedLanguage    string `json:"detected_language"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

type conversionResponse struct {
	ConvertedAudioURL string `json:"converted_audio_url"`
}

// UploadAudio posts the file at path as multipart form data and returns the
// backend-assigned identity.
func (c *Client) UploadAudio(ctx context.Context, path string) (domain.UploadedAudio, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.UploadedAudio{}, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return domain.UploadedAudio{}, fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return domain.UploadedAudio{}, fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return domain.UploadedAudio{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audios/", body)
	if err != nil {
		return domain.UploadedAudio{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var payload uploadResponse
	if err := c.do(req, &payload); err != nil {
		return domain.UploadedAudio{}, err
	}

	c.log.Info("audio uploaded", zap.String("audioId", payload.ID), zap.String("filename", payload.Filename))
	return domain.UploadedAudio{ID: payload.ID, Filename: payload.Filename}, nil
}

// FetchTranscript retrieves the generated transcript for an uploaded audio.
func (c *Client) FetchTranscript(ctx context.Context, audioID string) (ports.TranscriptPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.audioURL(audioID, "transcript"), nil)
	if err != nil {
		return ports.TranscriptPayload{}, fmt.Errorf("create transcript request: %w", err)
	}

	var payload transcriptResponse
	if err := c.do(req, &payload); err != nil {
		return ports.TranscriptPayload{}, err
	}

	return ports.TranscriptPayload{
		Text:             strings.TrimSpace(payload.CorrectedTranscript),
		DetectedLanguage: strings.ToLower(strings.TrimSpace(payload.DetectedLanguage)),
	}, nil
}

// UpdateTranscript pushes a corrected transcript for server-side validation.
func (c *Client) UpdateTranscript(ctx context.Context, audioID string, text string) error {
	req, err := c.jsonRequest(ctx, http.MethodPut, c.audioURL(audioID, "transcript"), map[string]string{
		"transcript": text,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Translate requests a translation of the stored transcript.
func (c *Client) Translate(ctx context.Context, audioID string, targetLanguage string) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, c.audioURL(audioID, "translate"), map[string]string{
		"target_language": targetLanguage,
	})
	if err != nil {
		return "", err
	}

	var payload translateResponse
	if err := c.do(req, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.TranslatedText), nil
}

// ConvertVoice requests a voice-converted render and returns its URL,
// resolved against the API base when the backend hands back a relative path.
func (c *Client) ConvertVoice(ctx context.Context, audioID string, targetLanguage string) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, c.audioURL(audioID, "voice-conversion"), map[string]string{
		"target_language": targetLanguage,
	})
	if err != nil {
		return "", err
	}

	var payload conversionResponse
	if err := c.do(req, &payload); err != nil {
		return "", err
	}
	if payload.ConvertedAudioURL == "" {
		return "", &APIError{StatusCode: http.StatusBadGateway, Detail: "backend returned no converted audio URL"}
	}
	return c.resolveURL(payload.ConvertedAudioURL)
}

// FetchAudio downloads audio bytes from an absolute or backend-relative URL.
func (c *Client) FetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	resolved, err := c.resolveURL(audioURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, fmt.Errorf("create audio request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) audioURL(audioID string, suffix string) string {
	return c.baseURL + "/audios/" + url.PathEscape(audioID) + "/" + suffix
}

func (c *Client) resolveURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid audio URL %q: %w", raw, err)
	}
	if parsed.IsAbs() {
		return raw, nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API base URL: %w", err)
	}
	return base.ResolveReference(parsed).String(), nil
}

func (c *Client) jsonRequest(ctx context.Context, method string, target string, body any) (*http.Request, error) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeAPIError(resp)
		c.log.Warn("backend rejected request",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Error(apiErr),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Detail           string `json:"detail"`
		DetectedLanguage string `json:"detected_language"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
		apiErr.DetectedLanguage = strings.ToLower(strings.TrimSpace(payload.DetectedLanguage))
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(body))
	return apiErr
}
