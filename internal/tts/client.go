// Package tts synthesizes narration audio for presentation scripts.
//
// Two backends are available: HTTPClient talks to a standalone speech
// service, CommandSynthesizer runs a local model binary. Narrator drives
// either one across a whole deck.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	acceptAudio       = "audio/wav, audio/*"
	audioTypePrefix   = "audio/"
)

// Default values.
const (
	defaultTemperature = 0.75
	defaultLanguage    = "nl"
)

// Error messages.
const (
	errFmtServiceErrorWithCode = "speech service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "speech service returned non-OK status: %s, body: %s"
)

var (
	// ErrEmptyText is returned when a request carries no text to speak.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrUnexpectedContentType is returned when the service answers with a non-audio body.
	ErrUnexpectedContentType = errors.New("unexpected content type")
	// ErrEmptyAudio is returned when the service answers with zero bytes.
	ErrEmptyAudio = errors.New("received empty audio data")
	// ErrUnhealthy is returned when the health endpoint does not report OK.
	ErrUnhealthy = errors.New("speech service unhealthy")
)

// Voice holds the synthesis parameters applied to every request.
type Voice struct {
	Language       string
	SpeakerRefPath string
	Temperature    float64
}

// HTTPClient is a client for the standalone speech HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	voice      Voice
}

// SpeechRequest is the JSON payload of a generation request.
type SpeechRequest struct {
	Text string `json:"text"`

	// SpeakerRefPath is a server-side path to a reference recording for
	// voice cloning. Empty selects the default speaker.
	SpeakerRefPath string  `json:"speaker_ref_path,omitempty"`
	Language       string  `json:"language"`
	Temperature    float64 `json:"temperature"`
}

// ErrorResponse is the structured error body returned by the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the service at baseURL
// (e.g. "http://localhost:8000"). The timeout applies per request.
func NewHTTPClient(baseURL string, timeout time.Duration, voice Voice) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		voice: voice,
	}
}

// Synthesize speaks text with the client's configured voice.
func (c *HTTPClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return c.GenerateSpeech(ctx, SpeechRequest{
		Text:           text,
		SpeakerRefPath: c.voice.SpeakerRefPath,
		Language:       c.voice.Language,
		Temperature:    c.voice.Temperature,
	})
}

// GenerateSpeech sends one generation request and returns the raw audio.
// Any audio/* response is accepted; the caller sniffs the actual format.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	if req.Temperature == 0 {
		req.Temperature = defaultTemperature
	}

	if req.Language == "" {
		req.Language = defaultLanguage
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, acceptAudio)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to speech service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get(headerContentType))
	if err != nil || !strings.HasPrefix(mediaType, audioTypePrefix) {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedContentType, resp.Header.Get(headerContentType))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the service is reachable and reports OK.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(
			"health check failed for service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrUnhealthy, resp.Status)
	}

	return nil
}

// parseErrorResponse decodes a structured error, falling back to the raw body.
func parseErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, readErr.Error())
	}

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}
