package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// RawSKU is one purchasable configuration as reported by the catalog API.
type RawSKU struct {
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Stock    struct {
		OnlineStock int `json:"onlineStock"`
	} `json:"stock"`
}

// RawProduct is one product record as reported by the catalog API.
type RawProduct struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	IsNew bool     `json:"isNew"`
	IsHot bool     `json:"isHot"`
	Skus  []RawSKU `json:"skus"`
}

// collectionPage is the body of a single paginated catalog response.
// The total is only authoritative on page 1.
type collectionPage struct {
	Total       int          `json:"total"`
	Name        string       `json:"name"`
	ProductData []RawProduct `json:"productData"`
}

// Collection is the result of fetching every page of one collection.
// Products preserve source order within and across pages.
type Collection struct {
	Name     string
	Total    int
	Products []RawProduct
	Pages    int
}

// Fetcher retrieves the full product listing of a collection.
type Fetcher interface {
	FetchCollection(ctx context.Context, collectionID int) (*Collection, error)
}

// Client fetches paginated collection listings from the catalog CDN.
type Client struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
}

// NewClient creates a catalog client. baseURL is the CDN root without a
// trailing slash; timeout bounds each page request.
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCollection requests pages starting at 1 until the collection is
// exhausted. A 404 response is the API's end-of-pagination signal and is not
// an error; any other non-200 response or transport failure aborts the fetch.
func (c *Client) FetchCollection(ctx context.Context, collectionID int) (*Collection, error) {
	const opn = "catalog.FetchCollection"

	result := &Collection{}

	for page := 1; ; page++ {
		pageData, found, err := c.fetchPage(ctx, collectionID, page)
		if err != nil {
			return nil, fmt.Errorf("%s: page %d: %w", opn, page, err)
		}
		if !found {
			// 404 means there is no next page.
			break
		}

		if page == 1 {
			result.Total = pageData.Total
			result.Name = pageData.Name
		}

		if len(pageData.ProductData) == 0 {
			break
		}

		result.Products = append(result.Products, pageData.ProductData...)
		result.Pages = page

		c.log.DebugContext(ctx, "Fetched collection page",
			"page", page, "records", len(pageData.ProductData), "cumulative", len(result.Products))

		// The page-1 total may undercount; trailing pages beyond it are not
		// requested. Accepted approximation of the API contract.
		if result.Total > 0 && len(result.Products) >= result.Total {
			break
		}
	}

	c.log.InfoContext(ctx, "Collection fetch complete",
		"collection", result.Name, "reported_total", result.Total,
		"fetched", len(result.Products), "pages", result.Pages)

	return result, nil
}

// fetchPage requests a single page. found is false when the API answered 404.
func (c *Client) fetchPage(ctx context.Context, collectionID, page int) (*collectionPage, bool, error) {
	reqURL := fmt.Sprintf("%s/shop_productoncollection-%d-1-%d-jp-ja.json", c.baseURL, collectionID, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request %s: %w", reqURL, err)
	}

	req.Header.Add("User-Agent", "Mozilla/5.0 (compatible; GoHttpClient/1.0)")
	req.Header.Add("Accept", "*/*")
	req.Header.Add("Referer", "https://www.popmart.com/")

	c.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to request %s: %w", reqURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	var pageData collectionPage
	if err = json.NewDecoder(res.Body).Decode(&pageData); err != nil {
		return nil, false, fmt.Errorf("failed to decode page body: %w", err)
	}

	return &pageData, true, nil
}
