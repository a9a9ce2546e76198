package report_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *models.StockSnapshot {
	return &models.StockSnapshot{
		InStock: []models.ProductAvailability{
			{
				ID:         101,
				Title:      "LABUBU Classic",
				IsNew:      true,
				TotalStock: 8,
				Variants:   []models.VariantStock{{Price: 1500, Currency: "JPY", Quantity: 8}},
				URL:        "https://shop.test/products/101",
			},
		},
		OutOfStock: []models.ProductAvailability{
			{ID: 102, Title: "Sold out item", URL: "https://shop.test/products/102"},
			{ID: 103, Title: "Another sold out item", IsHot: true, URL: "https://shop.test/products/103"},
		},
	}
}

func TestBuild(t *testing.T) {
	checkedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	snapshot := testSnapshot()

	doc := report.Build(snapshot, 223, checkedAt)

	assert.Equal(t, 223, doc.CollectionID)
	assert.Equal(t, 3, doc.Total)
	assert.Equal(t, 1, doc.InStockCount)
	assert.Equal(t, 2, doc.OutOfStockCount)
	assert.True(t, checkedAt.Equal(doc.Timestamp))

	// In-stock entries lead, out-of-stock entries follow, original order kept.
	require.Len(t, doc.Products, 3)
	assert.Equal(t, int64(101), doc.Products[0].ID)
	assert.Equal(t, int64(102), doc.Products[1].ID)
	assert.Equal(t, int64(103), doc.Products[2].ID)

	// Build must not mutate the snapshot.
	assert.Len(t, snapshot.InStock, 1)
	assert.Len(t, snapshot.OutOfStock, 2)
}

func TestWrite(t *testing.T) {
	checkedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	doc := report.Build(testSnapshot(), 223, checkedAt)

	path := filepath.Join(t.TempDir(), "stock_report.json")
	require.NoError(t, report.Write(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.InDelta(t, 223, decoded["collection_id"], 0)
	assert.InDelta(t, 3, decoded["total"], 0)
	assert.InDelta(t, 1, decoded["in_stock_count"], 0)
	assert.InDelta(t, 2, decoded["out_of_stock_count"], 0)
	assert.Equal(t, "2026-08-30T12:00:00+09:00", decoded["timestamp"])

	products, ok := decoded["products"].([]any)
	require.True(t, ok)
	require.Len(t, products, 3)

	first, ok := products[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "LABUBU Classic", first["title"])
	assert.Equal(t, true, first["is_new"])
	assert.InDelta(t, 8, first["total_stock"], 0)
}

func TestWrite_BadPath(t *testing.T) {
	doc := report.Build(testSnapshot(), 223, time.Now())

	err := report.Write(filepath.Join(t.TempDir(), "missing", "dir", "report.json"), doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report file")
}
