package relay

//go:generate mockgen -destination=./clients_mock_test.go -package=relay -source=clients.go

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// GeminiClient is the contract for the external Gemini streaming API.
type GeminiClient interface {
	// StreamGenerateContent sends req and returns the raw streamed response body.
	// A non-2xx answer is returned as an *UpstreamError with the body already drained.
	StreamGenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (io.ReadCloser, error)
}

// httpGeminiClient talks to the Gemini REST endpoint.
type httpGeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	logger     *zap.Logger
}

// NewHTTPGeminiClient is the constructor for the real Gemini client.
// headerTimeout bounds connecting and waiting for response headers; the streamed body has no deadline.
func NewHTTPGeminiClient(baseURL, model string, headerTimeout time.Duration, logger *zap.Logger) GeminiClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: headerTimeout}).DialContext
	transport.TLSHandshakeTimeout = headerTimeout
	transport.ResponseHeaderTimeout = headerTimeout

	return &httpGeminiClient{
		// No client Timeout: it would cut long answers off mid stream.
		httpClient: &http.Client{Transport: transport},
		baseURL:    baseURL,
		model:      model,
		logger:     logger,
	}
}

// streamURL builds the endpoint with the key as a query param.
// alt=sse makes the API emit one JSON object per line instead of a pretty printed array.
func (c *httpGeminiClient) streamURL(apiKey string) string {
	q := url.Values{}
	q.Set("alt", "sse")
	q.Set("key", apiKey)
	return fmt.Sprintf("%s/models/%s:streamGenerateContent?%s", c.baseURL, url.PathEscape(c.model), q.Encode())
}

func (c *httpGeminiClient) StreamGenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.streamURL(apiKey), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("could not create gemini http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("calling gemini api",
		zap.String("model", c.model),
		zap.Int("contents", len(req.Contents)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The url carries the key, so don't let it end up in logs or responses.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			c.logger.Warn("could not read gemini error body", zap.Error(readErr))
		}
		c.logger.Error("gemini api error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("gemini api response received, starting stream")
	return resp.Body, nil
}
