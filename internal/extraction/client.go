// Package extraction talks to the external OCR and text-extraction service
// and parses its output into candidate events.
//
// Both calls are opaque, potentially slow network operations. The client
// performs no retries of its own: the offline ingestion queue owns retry, so
// a failure here comes back immediately, classified as transient
// (connectivity, timeout, 5xx) or malformed (anything the service returned
// that cannot be used).
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	extractPath = "/v1/extract"
	ocrPath     = "/v1/ocr"
)

// apiResponse is the service envelope. Code 0 means success; data carries the
// operation payload.
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type extractRequest struct {
	Text string `json:"text"`
}

type ocrResult struct {
	Text string `json:"text"`
}

// Client is the HTTP client for the extraction service.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds the client. The timeout bounds every call; cancellation
// comes from the per-request context.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// Extract sends report text and returns the raw candidate payload for
// parsing. The payload is untrusted at this point.
func (c *Client) Extract(ctx context.Context, text string) ([]byte, error) {
	c.logger.Info("Calling extraction service",
		zap.Int("text_len", len(text)),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(extractRequest{Text: text}).
		Post(extractPath)
	if err != nil {
		return nil, Transient(fmt.Errorf("failed to call extraction service: %w", err))
	}

	data, err := c.decodeEnvelope(resp, "extraction")
	if err != nil {
		return nil, err
	}
	return data, nil
}

// OCR sends image bytes and returns the recognized text.
func (c *Client) OCR(ctx context.Context, imageBytes []byte, contentType string) (string, error) {
	c.logger.Info("Calling OCR service",
		zap.Int("image_bytes", len(imageBytes)),
		zap.String("content_type", contentType),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(imageBytes).
		Post(ocrPath)
	if err != nil {
		return "", Transient(fmt.Errorf("failed to call OCR service: %w", err))
	}

	data, err := c.decodeEnvelope(resp, "OCR")
	if err != nil {
		return "", err
	}

	var result ocrResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("%w: OCR payload: %v", ErrMalformed, err)
	}
	return result.Text, nil
}

// decodeEnvelope classifies the HTTP response and unwraps the envelope. The
// body is decoded by hand so an undecodable success response counts as
// malformed output, not a transport failure.
func (c *Client) decodeEnvelope(resp *resty.Response, op string) (json.RawMessage, error) {
	if resp.StatusCode() >= http.StatusInternalServerError {
		c.logger.Error("Service returned server error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, Transient(fmt.Errorf("%s service returned %d", op, resp.StatusCode()))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s service returned %d", ErrMalformed, op, resp.StatusCode())
	}

	var envelope apiResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("%w: undecodable %s envelope: %v", ErrMalformed, op, err)
	}
	if envelope.Code != 0 {
		c.logger.Error("Service returned error envelope",
			zap.String("op", op),
			zap.Int("code", envelope.Code),
			zap.String("message", envelope.Message),
		)
		return nil, fmt.Errorf("%w: %s error: %s (code %d)", ErrMalformed, op, envelope.Message, envelope.Code)
	}
	return envelope.Data, nil
}
