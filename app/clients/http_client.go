package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrServiceUnavailable is returned when the service cannot be reached at all:
// connection refused, name resolution failure or a request timeout.
var ErrServiceUnavailable = errors.New("service unavailable")

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 64 << 10

// TransportError wraps transport faults that are neither an unreachable
// service nor a server response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unexpected transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is returned when the server answers with an unexpected status.
// Detail holds the server-provided reason, if any.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// HTTPClient is a JSON HTTP client for the authorization service
type HTTPClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPClient creates a new HTTP client. Every request is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, userAgent string, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// DoRequest performs an HTTP request and hands the response to handler when
// the status matches expectedStatus. Any other status becomes a *StatusError.
func (c *HTTPClient) DoRequest(ctx context.Context, method, path string, payload interface{}, expectedStatus int, handler func(*http.Response) error) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return &TransportError{Err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.log.With().Str("method", method).Str("url", req.URL.String()).Str("request_id", requestID).Logger()
	logger.Debug().Msg("sending request")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		return c.classify(err)
	}
	defer resp.Body.Close()

	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("received response")

	if resp.StatusCode != expectedStatus {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Detail: ExtractDetail(bodyBytes)}
	}

	if handler == nil {
		return nil
	}
	if err := handler(resp); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// classify sorts a failed round trip into unavailable or unexpected.
func (c *HTTPClient) classify(err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w at %s: %w", ErrServiceUnavailable, c.baseURL, err)
	}
	return &TransportError{Err: err}
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return false
}

// ExtractDetail pulls a human readable reason out of an error body. It
// understands {"detail": "..."}, FastAPI validation lists
// ({"detail": [{"msg": "..."}]}) and {"error": "..."}.
func ExtractDetail(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	if len(parsed.Detail) > 0 {
		var s string
		if err := json.Unmarshal(parsed.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(parsed.Detail, &items); err == nil {
			var msgs []string
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return parsed.Error
}
