package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aniladanir/retry"
	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "https://api.z-api.io"
	DefaultTimeout = 60 * time.Second

	clientTokenHeader = "Client-Token"
	requestIDHeader   = "X-Request-ID"
)

// StatusError is a non-2xx gateway response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway responded with status %d: %s", e.StatusCode, e.Body)
}

// Config configures the Z-API client
type Config struct {
	BaseURL     string
	InstanceID  string
	Token       string
	ClientToken string
	Timeout     time.Duration
	// MaxAttempts bounds send attempts on transport errors and 5XX responses.
	// Zero keeps the retrier default.
	MaxAttempts int
}

// ZApiClient sends text messages through a Z-API instance
type ZApiClient struct {
	endpoint    string
	clientToken string
	httpClient  *http.Client
	retrier     *retry.Retrier
	logger      *slog.Logger
}

func NewZApiClient(conf Config, logger *slog.Logger) (*ZApiClient, error) {
	if conf.InstanceID == "" || conf.Token == "" {
		return nil, errors.New("z-api instance id and token are required")
	}

	// initialize retrier
	retrierOpts := make([]retry.Option, 0)
	if conf.MaxAttempts > 0 {
		retrierOpts = append(retrierOpts, retry.WithMaxAttemps(conf.MaxAttempts))
	}
	retrier, err := retry.New(retrierOpts...)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	baseURL := strings.TrimRight(conf.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &ZApiClient{
		endpoint:    fmt.Sprintf("%s/instances/%s/token/%s/send-text", baseURL, conf.InstanceID, conf.Token),
		clientToken: conf.ClientToken,
		httpClient:  &http.Client{Timeout: timeout},
		retrier:     retrier,
		logger:      logger,
	}, nil
}

// Send delivers text to phoneNumber. Transport errors and 5XX responses are
// retried; 4XX responses fail immediately.
func (c *ZApiClient) Send(ctx context.Context, phoneNumber, text string) (*domain.SendResult, error) {
	var (
		result  *domain.SendResult
		lastErr error
	)

	retryFunc := func(attempt int) (terminate bool) {
		retryLogger := c.logger.With(slog.Int("attempt", attempt), slog.String("phoneNumber", phoneNumber))

		requestID := uuid.NewString()
		resp, err := c.doSendRequest(ctx, requestID, phoneNumber, text)
		if err != nil {
			retryLogger.Error("failed to send request", "error", err.Error())
			lastErr = err
			return ctx.Err() != nil
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			// 5XX status code indicates server error, try retry
			retryLogger.Error("response indicates error",
				"requestId", requestID,
				"statusCode", resp.StatusCode)
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
			return false
		case resp.StatusCode >= http.StatusBadRequest:
			// 4XX indicates client error, no need to retry
			retryLogger.Error("response indicates error",
				"requestId", requestID,
				"statusCode", resp.StatusCode)
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
			return true
		}

		result = new(domain.SendResult)
		if len(body) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				retryLogger.Warn("failed to decode gateway response", "error", err.Error())
			}
		}
		lastErr = nil
		retryLogger.Info("message is successfully sent", "requestId", requestID, "messageId", result.MessageID)
		return true
	}

	retrySuccess := <-c.retrier.Retry(ctx, retryFunc, true)

	if lastErr != nil {
		return nil, lastErr
	}
	if !retrySuccess || result == nil {
		return nil, errors.New("gateway send attempts exhausted")
	}
	return result, nil
}

func (c *ZApiClient) doSendRequest(ctx context.Context, requestID, phoneNumber, text string) (*http.Response, error) {
	payload := map[string]string{
		"phone":   phoneNumber,
		"message": text,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.clientToken != "" {
		req.Header.Set(clientTokenHeader, c.clientToken)
	}

	return c.httpClient.Do(req)
}
