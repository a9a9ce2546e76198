package catalog

import (
	"fmt"
	"strings"

	"github.com/Houeta/stock-flow/internal/models"
)

// defaultCurrency is used when a SKU record carries no currency field.
const defaultCurrency = "JPY"

// Extractor normalizes raw catalog records into availability entries and
// partitions them into a snapshot.
type Extractor struct {
	productBaseURL string
	keyword        string
}

// NewExtractor creates an Extractor. productBaseURL is the canonical product
// page root without a trailing slash. keyword, when non-empty, restricts the
// snapshot to products whose title contains it (case-insensitive).
func NewExtractor(productBaseURL, keyword string) *Extractor {
	return &Extractor{productBaseURL: productBaseURL, keyword: keyword}
}

// BuildSnapshot extracts every matching product and partitions the result
// into in-stock and out-of-stock sets. Products filtered out by keyword never
// appear in either partition.
func (e *Extractor) BuildSnapshot(products []RawProduct) *models.StockSnapshot {
	snapshot := &models.StockSnapshot{}

	for _, raw := range products {
		if !e.matchesKeyword(raw.Title) {
			continue
		}

		entry := e.extract(raw)
		if entry.InStock() {
			snapshot.InStock = append(snapshot.InStock, entry)
		} else {
			snapshot.OutOfStock = append(snapshot.OutOfStock, entry)
		}
	}

	return snapshot
}

func (e *Extractor) matchesKeyword(title string) bool {
	if e.keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(e.keyword))
}

// extract maps one raw record to its availability entry. Only variants with
// positive quantity are retained; the aggregate sums all variants. Missing
// price/quantity fields decode to zero and missing currency falls back to
// the default, so malformed records never abort extraction.
func (e *Extractor) extract(raw RawProduct) models.ProductAvailability {
	entry := models.ProductAvailability{
		ID:    raw.ID,
		Title: raw.Title,
		IsNew: raw.IsNew,
		IsHot: raw.IsHot,
		URL:   fmt.Sprintf("%s/%d", e.productBaseURL, raw.ID),
	}

	for _, sku := range raw.Skus {
		entry.TotalStock += sku.Stock.OnlineStock

		if sku.Stock.OnlineStock > 0 {
			currency := sku.Currency
			if currency == "" {
				currency = defaultCurrency
			}
			entry.Variants = append(entry.Variants, models.VariantStock{
				Price:    sku.Price,
				Currency: currency,
				Quantity: sku.Stock.OnlineStock,
			})
		}
	}

	return entry
}
