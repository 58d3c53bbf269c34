// Package pushover delivers messages through the Pushover HTTP API.
package pushover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"deferred_notifier/internal/timeutil"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultURL     = "https://api.pushover.net/1/messages.json"
	DefaultTimeout = 15 * time.Second

	maxResponseBody = 64 << 10
)

// Config carries the credentials and limits for a Client.
type Config struct {
	Token         string
	User          string
	URL           string
	Timeout       time.Duration
	RatePerMinute int
}

// Client implements push.Sender. It never returns an error: every outcome is
// reported as a descriptor string that ends up in the delivery history.
type Client struct {
	token   string
	user    string
	url     string
	http    *http.Client
	limiter *rate.Limiter
	clock   timeutil.Clock
	logger  *logrus.Entry
}

func NewClient(cfg Config, clock timeutil.Clock, logger *logrus.Entry) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}
	return &Client{
		token:   cfg.Token,
		user:    cfg.User,
		url:     cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
		logger:  logger,
	}
}

// SendMessage posts text to Pushover and describes the outcome.
func (c *Client) SendMessage(ctx context.Context, text string) string {
	if c.token == "" || c.user == "" {
		msg := fmt.Sprintf("Pushover not configured: missing PUSHOVER_TOKEN or PUSHOVER_USER. at %s", timeutil.FormatUTC(c.clock.Now()))
		c.logger.Warn(msg)
		return msg
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.WithError(err).Warn("Pushover rate limiter rejected send")
		return "ERROR: rate limiter: " + err.Error()
	}

	form := url.Values{}
	form.Set("token", c.token)
	form.Set("user", c.user)
	form.Set("message", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "ERROR: " + err.Error()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Pushover request failed")
		return "ERROR: " + err.Error()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Sprintf("HTTP %d: <unreadable body: %v>", resp.StatusCode, err)
	}

	entry := c.logger.WithField("status", resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		entry.Warn("Pushover rejected message")
	} else {
		entry.Debug("Pushover accepted message")
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
}
