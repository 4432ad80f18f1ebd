// Package gateway provides a gateway to a MediaWiki action API,
// abstracting away the underlying HTTP transport and wire format.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"golang.org/x/oauth2"
)

var (
	// ErrTransport is returned for network failures, unexpected HTTP statuses
	// and responses that cannot be decoded.
	ErrTransport = errors.New("revision source transport failure")
	// ErrContinuationLoop is returned when the source hands back a continuation
	// token that was already followed during the same pagination.
	ErrContinuationLoop = errors.New("continuation token repeated")
	// ErrPageMissing is returned when the source reports that the title does not exist.
	ErrPageMissing = errors.New("page does not exist")
)

// SourceError is an error reported by the API itself in the response body.
type SourceError struct {
	Code string
	Info string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("revision source error %s: %s", e.Code, e.Info)
}

// Source defines the behavior of a gateway for fetching revisions of a wiki page.
type Source interface {
	// FetchUserRevisions returns every revision authored by username on title, in
	// the order the source returned them. On failure it returns the revisions
	// accumulated before the failure together with the error.
	FetchUserRevisions(ctx context.Context, title, username string, limit int) ([]domain.Revision, error)
	// FindPriorRevision returns the newest revision on title, by any author,
	// whose identifier is below revisionID. It returns nil if there is none.
	FindPriorRevision(ctx context.Context, title string, revisionID int64) (*domain.Revision, error)
}

// Options configures a MediaWikiGateway.
type Options struct {
	Endpoint  string
	UserAgent string
	// Token is an optional OAuth 2 bearer token.
	Token   string
	Timeout time.Duration
}

// MediaWikiGateway is the concrete implementation of the Source interface.
type MediaWikiGateway struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	logger     *log.Logger
}

var _ Source = (*MediaWikiGateway)(nil)

// queryResponse is the formatversion=2 shape of an action=query response.
type queryResponse struct {
	Continue map[string]any `json:"continue"`
	Query    *struct {
		Pages []page `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type page struct {
	PageID        int64      `json:"pageid"`
	Title         string     `json:"title"`
	Missing       bool       `json:"missing"`
	Invalid       bool       `json:"invalid"`
	InvalidReason string     `json:"invalidreason"`
	Revisions     []revision `json:"revisions"`
}

type revision struct {
	RevID     int64     `json:"revid"`
	ParentID  int64     `json:"parentid"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment"`
	Slots     *struct {
		Main *struct {
			ContentModel string  `json:"contentmodel"`
			Content      *string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}

func (r revision) toDomain() domain.Revision {
	rev := domain.Revision{
		ID:        r.RevID,
		ParentID:  r.ParentID,
		Timestamp: r.Timestamp,
		User:      r.User,
		Comment:   r.Comment,
	}
	if r.Slots != nil && r.Slots.Main != nil && r.Slots.Main.Content != nil {
		rev.Content = domain.NewContent(*r.Slots.Main.Content)
	}
	return rev
}

// NewMediaWikiGateway is a constructor that creates a new instance of MediaWikiGateway.
func NewMediaWikiGateway(opts Options, logger *log.Logger) (*MediaWikiGateway, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint %q: %w", opts.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API endpoint %q: scheme must be http or https", opts.Endpoint)
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		httpClient.Transport = &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	return &MediaWikiGateway{
		httpClient: httpClient,
		endpoint:   opts.Endpoint,
		userAgent:  opts.UserAgent,
		logger:     logger,
	}, nil
}

func baseParams(title string) url.Values {
	return url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"revisions"},
		"titles":        {title},
		"rvprop":        {"ids|timestamp|user|comment|content"},
		"rvslots":       {"main"},
		"redirects":     {"1"},
	}
}

// FetchUserRevisions pages through the revision history of title, following
// continuation tokens until the source stops returning one.
func (g *MediaWikiGateway) FetchUserRevisions(ctx context.Context, title, username string, limit int) ([]domain.Revision, error) {
	g.logger.Printf("[1/2] Fetching revisions by %s on %q...\n", username, title)
	params := baseParams(title)
	params.Set("rvlimit", strconv.Itoa(limit))
	params.Set("rvuser", username)

	var revisions []domain.Revision
	seen := make(map[string]struct{})
	for {
		resp, err := g.query(ctx, params)
		if err != nil {
			return revisions, fmt.Errorf("failed to fetch revisions: %w", err)
		}
		p, err := firstPage(resp, title)
		if err != nil {
			return revisions, err
		}
		for _, r := range p.Revisions {
			revisions = append(revisions, r.toDomain())
		}

		if len(resp.Continue) == 0 {
			break
		}
		token := continuationValues(resp.Continue)
		key := token.Encode()
		if _, ok := seen[key]; ok {
			return revisions, fmt.Errorf("%w: %s", ErrContinuationLoop, key)
		}
		seen[key] = struct{}{}
		for k, v := range token {
			params[k] = v
		}
		g.logger.Println("  Fetching next page of revisions...")
	}
	g.logger.Printf("Completed fetching %d revisions.\n", len(revisions))
	return revisions, nil
}

// FindPriorRevision looks up the single revision immediately older than revisionID.
func (g *MediaWikiGateway) FindPriorRevision(ctx context.Context, title string, revisionID int64) (*domain.Revision, error) {
	g.logger.Printf("[2/2] Fetching baseline revision before %d...\n", revisionID)
	if revisionID <= 1 {
		return nil, nil
	}
	params := baseParams(title)
	params.Set("rvlimit", "1")
	params.Set("rvstartid", strconv.FormatInt(revisionID-1, 10))
	params.Set("rvdir", "older")

	resp, err := g.query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch baseline revision: %w", err)
	}
	p, err := firstPage(resp, title)
	if err != nil {
		return nil, err
	}
	if len(p.Revisions) == 0 {
		g.logger.Println("No baseline revision found.")
		return nil, nil
	}
	rev := p.Revisions[0].toDomain()
	return &rev, nil
}

func (g *MediaWikiGateway) query(ctx context.Context, params url.Values) (*queryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, res.Status)
	}

	var qr queryResponse
	if err := json.NewDecoder(res.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrTransport, err)
	}
	if qr.Error != nil {
		return nil, &SourceError{Code: qr.Error.Code, Info: qr.Error.Info}
	}
	return &qr, nil
}

// firstPage returns the single page a titles= query resolves to.
func firstPage(resp *queryResponse, title string) (*page, error) {
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: response has no pages", ErrTransport)
	}
	p := &resp.Query.Pages[0]
	switch {
	case p.Invalid:
		return nil, &SourceError{Code: "invalidtitle", Info: p.InvalidReason}
	case p.Missing:
		return nil, fmt.Errorf("%w: %q", ErrPageMissing, title)
	}
	return p, nil
}

// continuationValues flattens a continue object into request parameters.
func continuationValues(c map[string]any) url.Values {
	v := make(url.Values, len(c))
	for k, raw := range c {
		switch x := raw.(type) {
		case string:
			v.Set(k, x)
		case float64:
			v.Set(k, strconv.FormatFloat(x, 'f', -1, 64))
		default:
			v.Set(k, fmt.Sprint(x))
		}
	}
	return v
}
