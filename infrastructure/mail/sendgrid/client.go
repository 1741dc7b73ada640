package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"priorify/pkg/resilience"
)

const defaultBaseURL = "https://api.sendgrid.com"

// Config holds the SendGrid API settings
type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	Timeout    time.Duration
	MaxRetries int
}

// Address is a mail participant
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is one outgoing mail
type Message struct {
	To         Address
	Subject    string
	Text       string
	HTML       string
	Categories []string
}

// SendResult carries the identifiers SendGrid returns for an accepted mail
type SendResult struct {
	StatusCode int
	MessageID  string
}

// HTTPError is a non-2xx answer from SendGrid
type HTTPError struct {
	StatusCode int
	Body       string
	Messages   []string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Messages[0])
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "<empty body>"
	}
	if len(body) > 1000 {
		body = body[:1000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, body)
}

// Client sends mail through the SendGrid v3 mail send endpoint
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *resilience.Breaker
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// NewClient creates a new SendGrid client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("missing SENDGRID_FROM_EMAIL")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerConfig("sendgrid"), isRetryable, logger),
		sleep:      sleepContext,
		logger:     logger,
	}, nil
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To []Address `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Send delivers one message, retrying throttled and server-side failures
func (c *Client) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if strings.TrimSpace(msg.To.Email) == "" {
		return nil, fmt.Errorf("sendgrid: recipient required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, fmt.Errorf("sendgrid: subject required")
	}

	// text/plain must precede text/html in the content list
	var contents []mailContent
	if t := strings.TrimSpace(msg.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("sendgrid: text or html content required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: []Address{msg.To}}},
		From:             Address{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		Subject:          msg.Subject,
		Content:          contents,
		Categories:       msg.Categories,
	}

	return resilience.Call(c.breaker, func() (*SendResult, error) {
		return c.do(ctx, wire)
	})
}

func (c *Client) do(ctx context.Context, body mailSendRequest) (*SendResult, error) {
	backoff := time.Second
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.doOnce(ctx, body)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) || attempt >= c.cfg.MaxRetries {
			return nil, err
		}

		wait := backoff
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
			wait = httpErr.RetryAfter
		}
		if wait > 10*time.Second {
			wait = 10 * time.Second
		}

		c.logger.Warn("SendGrid request retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("maxRetries", c.cfg.MaxRetries),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, body mailSendRequest) (*SendResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			for _, e := range er.Errors {
				httpErr.Messages = append(httpErr.Messages, e.Message)
			}
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			httpErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return nil, httpErr
	}

	return &SendResult{
		StatusCode: resp.StatusCode,
		MessageID:  strings.TrimSpace(resp.Header.Get("X-Message-Id")),
	}, nil
}

// isRetryable reports throttling, server errors and transport failures
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
