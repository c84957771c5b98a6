package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/swim-times/internal/logger"
)

const (
	DefaultBaseURL = "https://www.swimcloud.com"
	UserAgent      = "swim-times/1.0 (github.com/pfrederiksen/swim-times)"
	Timeout        = 30 * time.Second
)

var (
	// ErrUnexpectedStatus is returned when a page responds with a non-200 status
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrMalformedTable is returned when a results table does not have the
	// expected shape, e.g. a data row whose cell count differs from the header
	ErrMalformedTable = errors.New("malformed results table")

	// ErrMalformedPage is returned when a page lacks a required element
	ErrMalformedPage = errors.New("malformed page")
)

// Scraper fetches and parses pages from the meet-results and swimmer-profile sites
type Scraper struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithBaseURL overrides the meet-results site root
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:   DefaultBaseURL,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the meet-results site root
func (s *Scraper) BaseURL() string {
	return s.baseURL
}

// fetch performs a GET and hands the body to parse
func (s *Scraper) fetch(ctx context.Context, pageURL string, parse func(io.Reader) error) error {
	start := time.Now()
	defer func() {
		logger.RecordTiming("scraper.fetch", time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.IncrCounter("scraper.fetch.errors")
		return errors.Wrap(err, "fetching page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.IncrCounter("scraper.fetch.errors")
		return errors.Wrapf(ErrUnexpectedStatus, "%s: %d", pageURL, resp.StatusCode)
	}

	logger.IncrCounter("scraper.fetch.ok")
	return parse(resp.Body)
}

// fetchDocument fetches a page and parses it into a goquery document
func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := s.fetch(ctx, pageURL, func(r io.Reader) error {
		var err error
		doc, err = goquery.NewDocumentFromReader(r)
		if err != nil {
			return errors.Wrap(err, "parsing HTML")
		}
		return nil
	})
	return doc, err
}

// cellText returns the trimmed text of a cell
func cellText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
