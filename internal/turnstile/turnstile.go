package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"milk2meat/internal/config"
	"milk2meat/internal/logging"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout applies when the configuration sets no verification timeout.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNotConfigured is returned when verification is enabled but no secret key is set.
	ErrNotConfigured = errors.New("turnstile secret key not configured")
	// ErrUnavailable is returned when the verification service cannot be reached or answers garbage.
	ErrUnavailable = errors.New("turnstile verification service unavailable")
)

// Verifier checks a Turnstile response token submitted with a form.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIp string) (bool, error)
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

type Client struct {
	logging.Logger
	httpClient *http.Client
	verifyUrl  string
	secret     string
}

var _ Verifier = &Client{}

func NewClient(c *config.Configuration, l logging.Logger) *Client {
	if l == nil {
		l = &logging.NullLogger{}
	}

	timeout := DefaultTimeout
	if c.Turnstile.Timeout != nil && c.Turnstile.Timeout.Duration > 0 {
		timeout = c.Turnstile.Timeout.Duration
	}

	verifyUrl := ""
	if c.Turnstile.VerifyUrl != nil && c.Turnstile.VerifyUrl.URL != nil {
		verifyUrl = c.Turnstile.VerifyUrl.String()
	}

	return &Client{
		Logger:     l,
		httpClient: &http.Client{Timeout: timeout},
		verifyUrl:  verifyUrl,
		secret:     c.Turnstile.SecretKey,
	}
}

// Verify posts token to the verification endpoint. A missing token or a negative answer
// is reported as false without error; transport failures wrap ErrUnavailable.
func (t *Client) Verify(ctx context.Context, token, remoteIp string) (bool, error) {
	if len(t.secret) == 0 {
		t.LogError(logging.GetLogTypeAuth(), "turnstile secret key not configured")
		return false, ErrNotConfigured
	}

	if len(token) == 0 {
		t.LogInfof(logging.GetLogTypeAuth(), "missing turnstile response token from %s", remoteIp)
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", t.secret)
	form.Set("response", token)
	form.Set("remoteip", remoteIp)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.verifyUrl, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.LogErrorf(logging.GetLogTypeAuth(), "turnstile validation request error: %v", err)
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		t.LogErrorf(logging.GetLogTypeAuth(), "turnstile validation answered with status %d", resp.StatusCode)
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result verifyResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !result.Success {
		t.LogWarnf(logging.GetLogTypeAuth(), "failed turnstile validation from %s: %v", remoteIp, result.ErrorCodes)
		return false, nil
	}

	return true, nil
}

// SkipVerifier accepts every token. Used when validation is switched off.
type SkipVerifier struct{}

func (s SkipVerifier) Verify(ctx context.Context, token, remoteIp string) (bool, error) {
	return true, nil
}
