package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DataSource defines the portal operations the area repository depends on.
// This interface is implemented by *Client and can be used for testing.
type DataSource interface {
	FetchItem(ctx context.Context) (Item, error)
	FetchAreas(ctx context.Context) ([]Area, error)
	FetchThumbnail(ctx context.Context, item Item) ([]byte, error)
	DownloadArea(area Area, dest Materializer) *Job
}

// Materializer stores a downloaded area package under the area's title.
type Materializer interface {
	Materialize(ctx context.Context, title string, archive io.Reader) error
}

// Ensure Client implements DataSource at compile time.
var _ DataSource = (*Client)(nil)

// Client talks to a portal's sharing REST API for a single web map.
type Client struct {
	baseURL   *url.URL
	mapID     string
	http      *http.Client
	download  *http.Client
	userAgent string
}

const (
	defaultPortalURL      = "https://www.arcgis.com/"
	defaultUserAgent      = "explore/0.1"
	defaultRequestTimeout = 30 * time.Second
	contentPath           = "sharing/rest/content/items/"
)

// Options configure a Client.
type Options struct {
	PortalURL      string
	MapID          string
	RequestTimeout time.Duration // zero uses default
}

// NewClient builds a Client for the configured portal and web map.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.PortalURL)
	if err != nil {
		return nil, err
	}
	mapID := strings.TrimSpace(opts.MapID)
	if mapID == "" {
		return nil, fmt.Errorf("map id is required")
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:   base,
		mapID:     mapID,
		http:      &http.Client{Timeout: timeout},
		download:  &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// MapID returns the web map this client is bound to.
func (c *Client) MapID() string {
	return c.mapID
}

// FetchItem retrieves the summary of the configured web map.
func (c *Client) FetchItem(ctx context.Context) (Item, error) {
	if c == nil {
		return Item{}, fmt.Errorf("client is nil")
	}
	var payload Item
	if err := c.getJSON(ctx, itemPath(c.mapID), url.Values{"f": {"json"}}, &payload); err != nil {
		return Item{}, err
	}
	return payload, nil
}

// FetchAreas retrieves the preplanned offline areas of the web map in the
// order the portal lists them.
func (c *Client) FetchAreas(ctx context.Context) ([]Area, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	query := url.Values{
		"relationshipType": {"Map2Area"},
		"direction":        {"forward"},
		"f":                {"json"},
	}
	var payload relatedItemsResponse
	if err := c.getJSON(ctx, itemPath(c.mapID)+"/relatedItems", query, &payload); err != nil {
		return nil, err
	}
	return payload.RelatedItems, nil
}

// FetchThumbnail downloads the raw thumbnail bytes for an item.
func (c *Client) FetchThumbnail(ctx context.Context, item Item) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if !item.HasThumbnail() {
		return nil, fmt.Errorf("item %s has no thumbnail", item.ID)
	}
	resp, err := c.get(ctx, c.http, itemPath(item.ID)+"/info/"+item.Thumbnail, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	return data, nil
}

// DownloadArea prepares a job that downloads the area package and hands it to
// dest. The job does nothing until started.
func (c *Client) DownloadArea(area Area, dest Materializer) *Job {
	return newJob(func(ctx context.Context) error {
		if c == nil {
			return fmt.Errorf("client is nil")
		}
		return c.downloadPackage(ctx, area, dest)
	})
}

func (c *Client) downloadPackage(ctx context.Context, area Area, dest Materializer) error {
	resp, err := c.get(ctx, c.download, itemPath(area.ID)+"/data", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	tmp, err := os.CreateTemp("", "explore-area-*.tar.gz")
	if err != nil {
		return fmt.Errorf("create package file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("write package file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind package file: %w", err)
	}
	if err := dest.Materialize(ctx, area.Title, tmp); err != nil {
		return fmt.Errorf("materialize %q: %w", area.Title, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	resp, err := c.get(ctx, c.http, path, query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return fmt.Errorf("portal %s error %d: %s", path, envelope.Error.Code, envelope.Error.Message)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, hc *http.Client, path string, query url.Values) (*http.Response, error) {
	rel := &url.URL{Path: path, RawQuery: query.Encode()}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if query.Get("f") == "json" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("portal %s returned status %d", path, resp.StatusCode)
	}
	return resp, nil
}

func itemPath(id string) string {
	return contentPath + id
}

func parseBaseURL(portalURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(portalURL)
	if trimmed == "" {
		trimmed = defaultPortalURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse portal_url %q: %w", portalURL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
