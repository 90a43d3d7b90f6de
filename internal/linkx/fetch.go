package linkx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/netx"
)

// DefaultMicrolinkEndpoint is the public microlink.io metadata API.
const DefaultMicrolinkEndpoint = "https://api.microlink.io"

const maxBodySize = 2 << 20

// Metadata is what a Fetcher extracts for one URL.
type Metadata struct {
	Title       string
	Description string
	Image       string
}

// Fetcher loads preview metadata for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Metadata, error)
}

// NewHTTPClient returns the client fetchers use by default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// MicrolinkFetcher asks a microlink-compatible JSON API for metadata.
type MicrolinkFetcher struct {
	client   *http.Client
	endpoint string
}

func NewMicrolinkFetcher(client *http.Client, endpoint string) *MicrolinkFetcher {
	if endpoint == "" {
		endpoint = DefaultMicrolinkEndpoint
	}
	return &MicrolinkFetcher{client: client, endpoint: endpoint}
}

type microlinkResponse struct {
	Status string `json:"status"`
	Data   struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Image       *struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"data"`
}

func (f *MicrolinkFetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	body, err := netx.Get(ctx, f.client, f.endpoint+"?url="+url.QueryEscape(rawURL), maxBodySize)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: microlink: %w", common.ErrExternalService, err)
	}

	var resp microlinkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Metadata{}, fmt.Errorf("%w: microlink: malformed response: %w", common.ErrExternalService, err)
	}
	if resp.Status != "success" {
		return Metadata{}, fmt.Errorf("%w: microlink status %q", common.ErrExternalService, resp.Status)
	}

	md := Metadata{Title: resp.Data.Title, Description: resp.Data.Description}
	if resp.Data.Image != nil {
		md.Image = resp.Data.Image.URL
	}
	return md, nil
}

// HTMLFetcher downloads the page itself and reads Open Graph tags, falling
// back to <title> and the description meta tag.
type HTMLFetcher struct {
	client *http.Client
}

func NewHTMLFetcher(client *http.Client) *HTMLFetcher {
	return &HTMLFetcher{client: client}
}

func (f *HTMLFetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	body, err := netx.Get(ctx, f.client, rawURL, maxBodySize)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", common.ErrExternalService, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: parse html: %w", common.ErrExternalService, err)
	}

	md := Metadata{
		Title:       firstNonEmpty(metaContent(doc, `meta[property="og:title"]`), doc.Find("title").First().Text()),
		Description: firstNonEmpty(metaContent(doc, `meta[property="og:description"]`), metaContent(doc, `meta[name="description"]`)),
		Image:       resolve(rawURL, metaContent(doc, `meta[property="og:image"]`)),
	}
	if md == (Metadata{}) {
		return Metadata{}, fmt.Errorf("%w: no preview metadata in %s", common.ErrExternalService, rawURL)
	}
	return md, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolve makes a possibly relative image reference absolute.
func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
