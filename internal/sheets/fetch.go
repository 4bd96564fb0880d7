package sheets

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fetcher downloads spreadsheet CSV exports over HTTP.
type Fetcher struct {
	httpClient   *http.Client
	customClient bool
	timeout      time.Duration
	limiter      *rate.Limiter
	maxBody      int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = hc
		f.customClient = true
	}
}

// WithRateLimit sets the requests-per-second limit for sheet fetches.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the request timeout for sheet fetches. Ignored when a
// custom HTTP client is supplied, regardless of option order.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodyBytes caps the response size read from a sheet.
func WithMaxBodyBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBody = n
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(2, 2),
		maxBody:    16 << 20,
	}
	for _, opt := range opts {
		opt(f)
	}
	if !f.customClient && f.timeout > 0 {
		f.httpClient.Timeout = f.timeout
	}
	return f
}

// FetchCSV downloads a CSV export URL and parses it into rows. The first row
// is the header. Ragged rows are tolerated; callers index defensively.
func (f *Fetcher) FetchCSV(ctx context.Context, csvURL string) ([][]string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sheets: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: build request")
	}

	zap.L().Debug("sheets: fetching CSV export", zap.String("url", csvURL))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: fetch sheet")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("sheets: sheet returned HTTP %d; is the sheet shared publicly?", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read response")
	}

	// Private sheets redirect to a Google sign-in page instead of failing.
	if looksLikeHTML(body) {
		return nil, eris.New("sheets: sheet is not publicly accessible (got an HTML page instead of CSV)")
	}

	rows, err := ParseCSV(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("sheets: sheet is empty")
	}

	return rows, nil
}

// ParseCSV reads CSV rows without enforcing a uniform column count.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "sheets: parse CSV")
	}
	return rows, nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
