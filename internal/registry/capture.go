package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

const (
	DefaultFindURL        = "https://www.meetup.com/find/"
	DefaultCaptureTimeout = 60 * time.Second

	groupCardSelector = "#group-card-in-search-results"
)

// CaptureOptions describes the Meetup group search to scrape.
type CaptureOptions struct {
	FindURL    string
	Location   string // e.g. "us--ok--Oklahoma City"
	CategoryID string
	Distance   string // anyDistance, tenMiles, ...
	Latitude   float64
	Longitude  float64
	Timeout    time.Duration
}

// SearchURL builds the group search page address.
func (o CaptureOptions) SearchURL() string {
	base := o.FindURL
	if base == "" {
		base = DefaultFindURL
	}
	q := url.Values{}
	q.Set("source", "GROUPS")
	if o.Distance != "" {
		q.Set("distance", o.Distance)
	}
	if o.CategoryID != "" {
		q.Set("categoryId", o.CategoryID)
	}
	if o.Location != "" {
		q.Set("location", o.Location)
	}
	return base + "?" + q.Encode()
}

// Capture loads the group search page in headless Chromium and returns the
// hrefs of every group card. The group GraphQL schema does not list groups
// outside the pro network, so the search page is the only listing.
func Capture(parentCtx context.Context, opts CaptureOptions) ([]string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCaptureTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var hrefs []string
	tasks := chromedp.Tasks{
		emulation.SetGeolocationOverride().
			WithLatitude(opts.Latitude).
			WithLongitude(opts.Longitude).
			WithAccuracy(100),
		chromedp.Navigate(opts.SearchURL()),
		chromedp.WaitVisible(groupCardSelector, chromedp.ByQuery),
		chromedp.Evaluate(
			`Array.from(document.querySelectorAll("`+groupCardSelector+`")).map(a => a.href)`,
			&hrefs,
		),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return hrefs, nil
}

// URLName extracts the group urlname from a group page link such as
// https://www.meetup.com/okc-fp/.
func URLName(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return parts[0]
}

// Group is one row of the groups table.
type Group struct {
	URL     string
	URLName string
}

// Groups turns captured hrefs into sorted, de-duplicated rows, skipping the
// excluded urlnames.
func Groups(hrefs []string, exclude []string) []Group {
	seen := make(map[string]struct{}, len(hrefs))
	var out []Group
	for _, h := range hrefs {
		name := URLName(h)
		if name == "" || slices.Contains(exclude, name) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Group{URL: strings.TrimSpace(h), URLName: name})
	}
	slices.SortFunc(out, func(a, b Group) int { return strings.Compare(a.URLName, b.URLName) })
	return out
}

// WriteCSV writes the groups table read back by LoadCSV.
func WriteCSV(w io.Writer, groups []Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"url", "urlname"}); err != nil {
		return err
	}
	for _, g := range groups {
		if err := cw.Write([]string{g.URL, g.URLName}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
