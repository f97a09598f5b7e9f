package twitter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tweetscraper/pkg/errors"
	"tweetscraper/pkg/logger"
	"tweetscraper/pkg/models"
	"tweetscraper/pkg/ratelimit"
)

// Client is a Twitter API v2 client authenticated with an app bearer token
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API host, such as a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLimiter paces every request through limiter
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.headers["User-Agent"] = userAgent
		}
	}
}

// NewClient creates a new Twitter API client
func NewClient(bearerToken string, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Authorization": "Bearer " + bearerToken,
			"User-Agent":    "tweetscraper/1.0",
			"Accept":        "application/json",
		},
		baseURL: BaseURL,
		logger:  log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchPage fetches one page of a user timeline.
// A 429 answer is returned as an error of type errors.ErrorTypeRateLimit.
func (c *Client) FetchPage(ctx context.Context, req models.PageRequest) (*models.Page, error) {
	if req.UserID == "" {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "user ID is required")
	}

	url := GetUserTweetsURL(c.baseURL, req)

	c.logger.DebugWithFields("fetching timeline page", map[string]interface{}{
		"user_id": req.UserID,
		"cursor":  req.Cursor,
	})

	var response TimelineResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	if len(response.Data) == 0 && len(response.Errors) > 0 {
		return nil, c.problemError(req.UserID, response.Errors[0])
	}

	page := response.ToPage()

	c.logger.DebugWithFields("fetched timeline page", map[string]interface{}{
		"user_id":      req.UserID,
		"result_count": response.Meta.ResultCount,
		"has_next":     page.HasNext(),
	})

	return page, nil
}

// problemError maps an errors-only 200 body onto a typed error
func (c *Client) problemError(userID string, problem APIError) error {
	errType := errors.ErrorTypeUnknown
	if strings.HasSuffix(problem.Type, "resource-not-found") {
		errType = errors.ErrorTypeNotFound
	}

	message := problem.Detail
	if message == "" {
		message = problem.Title
	}

	c.logger.WarnWithFields("timeline request returned errors", map[string]interface{}{
		"user_id": userID,
		"type":    problem.Type,
		"detail":  message,
	})

	return errors.New(errType, http.StatusOK, "%s", message)
}

// doRequest waits for the limiter, then performs req with the configured headers
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.Path, resp.StatusCode, duration)

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	errType := errors.TypeForStatus(resp.StatusCode)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
	}
	if resp.Request != nil {
		fields["url"] = resp.Request.URL.Path
	}

	switch errType {
	case errors.ErrorTypeRateLimit:
		if reset, ok := rateLimitReset(resp.Header); ok {
			fields["reset_at"] = reset
			fields["reset_in"] = time.Until(reset).Round(time.Second)
		}
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errors.New(errType, resp.StatusCode, "rate limit exceeded")
	case errors.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication error", fields)
		return errors.New(errType, resp.StatusCode, "bearer token rejected")
	case errors.ErrorTypeNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errors.New(errType, resp.StatusCode, "resource not found")
	case errors.ErrorTypeServerError:
		c.logger.ErrorWithFields("server error", fields)
		return errors.New(errType, resp.StatusCode, "server error")
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return errors.New(errType, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	}
}

// rateLimitReset parses the x-rate-limit-reset header
func rateLimitReset(h http.Header) (time.Time, bool) {
	raw := h.Get(RateLimitResetHeader)
	if raw == "" {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
