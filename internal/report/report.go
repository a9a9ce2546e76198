// Package report aggregates a stock snapshot into the full-catalog document
// consumed by external rendering tools.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Houeta/stock-flow/internal/models"
)

// Report is the serializable full-snapshot document: summary counts plus the
// per-product detail of both partitions, in-stock entries first.
type Report struct {
	Timestamp       time.Time                    `json:"timestamp"`
	CollectionID    int                          `json:"collection_id"`
	Total           int                          `json:"total"`
	InStockCount    int                          `json:"in_stock_count"`
	OutOfStockCount int                          `json:"out_of_stock_count"`
	Products        []models.ProductAvailability `json:"products"`
}

// Build produces the report document for one snapshot. Pure: the snapshot is
// not modified and no side effects occur.
func Build(snapshot *models.StockSnapshot, collectionID int, checkedAt time.Time) *Report {
	products := make([]models.ProductAvailability, 0, snapshot.Total())
	products = append(products, snapshot.InStock...)
	products = append(products, snapshot.OutOfStock...)

	return &Report{
		Timestamp:       checkedAt,
		CollectionID:    collectionID,
		Total:           snapshot.Total(),
		InStockCount:    len(snapshot.InStock),
		OutOfStockCount: len(snapshot.OutOfStock),
		Products:        products,
	}
}

// Write persists the report as indented JSON at path.
func Write(path string, rep *Report) error {
	const opn = "report.Write"

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to marshal report: %w", opn, err)
	}

	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: failed to write report file: %w", opn, err)
	}

	return nil
}
