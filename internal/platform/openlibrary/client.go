// Package openlibrary is a small client for the Open Library books API.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://openlibrary.org"

var (
	// ErrUnexpectedStatus matches every *StatusError.
	ErrUnexpectedStatus = errors.New("openlibrary: unexpected status")
	// ErrCircuitOpen is returned without calling Open Library while the
	// breaker is open.
	ErrCircuitOpen = gobreaker.ErrOpenState

	errDecode = errors.New("openlibrary: decode response")
)

// StatusError is a non-200 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openlibrary: unexpected status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

func (e *StatusError) temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type Options struct {
	BaseURL    string
	UserAgent  string
	RPS        float64
	MaxRetries int
	Timeout    time.Duration

	// BreakerFailures consecutive temporary failures open the breaker for
	// BreakerCooldown. Defaults are 5 and 30s.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[bool]
	maxRetries int
	backoff    time.Duration
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), 1),
		breaker:    newBreaker(opts.BreakerFailures, opts.BreakerCooldown),
		maxRetries: opts.MaxRetries,
		backoff:    time.Second,
	}
}

func newBreaker(failures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker[bool] {
	return gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:    "openlibrary",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Only outages count against the breaker; a 404 or a bad payload
		// says nothing about Open Library's health.
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return !statusErr.temporary()
			}
			return err == nil || errors.Is(err, errDecode) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

type Publisher struct {
	Name string `json:"name"`
}

// Text is a field Open Library serves either as a plain string or as
// {"type": "/type/text", "value": "..."}.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = Text(obj.Value)
	return nil
}

// Edition matches one entry of api/books?jscmd=data.
type Edition struct {
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle"`
	Publishers  []Publisher `json:"publishers"`
	PublishDate string      `json:"publish_date"`
	Authors     []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"authors"`
	Subjects []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"subjects"`
	NumberOfPages int  `json:"number_of_pages"`
	Notes         Text `json:"notes"`
	Description   Text `json:"description"`
}

// GetEditionsByISBN returns the editions found for isbns keyed by the bare
// ISBN. ISBNs unknown to Open Library are simply absent from the map.
func (c *Client) GetEditionsByISBN(ctx context.Context, isbns []string) (map[string]Edition, error) {
	if len(isbns) == 0 {
		return map[string]Edition{}, nil
	}

	bibkeys := make([]string, len(isbns))
	for i, isbn := range isbns {
		bibkeys[i] = "ISBN:" + isbn
	}

	q := url.Values{}
	q.Set("bibkeys", strings.Join(bibkeys, ","))
	q.Set("jscmd", "data")
	q.Set("format", "json")

	var res map[string]Edition
	if err := c.get(ctx, c.baseURL+"/api/books?"+q.Encode(), &res); err != nil {
		return nil, err
	}

	out := make(map[string]Edition, len(res))
	for key, ed := range res {
		out[strings.TrimPrefix(key, "ISBN:")] = ed
	}
	return out, nil
}

// get retries transport errors, 429 and 5xx with exponential backoff. Every
// attempt waits on the rate limiter first.
func (c *Client) get(ctx context.Context, u string, target any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			zerolog.Ctx(ctx).Debug().Err(lastErr).Int("attempt", attempt).Dur("backoff", wait).Msg("openlibrary retry")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.breaker.Execute(func() (bool, error) {
			return c.do(ctx, u, target)
		})
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("openlibrary: giving up after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, u string, target any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Code: resp.StatusCode}
		return statusErr.temporary(), statusErr
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("%w: %v", errDecode, err)
	}
	return false, nil
}
