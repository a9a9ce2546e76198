package models

// VariantStock is one purchasable configuration (SKU) of a product that
// currently has stock.
type VariantStock struct {
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"stock"`
}

// ProductAvailability is the normalized stock view of a single product.
type ProductAvailability struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	IsNew      bool           `json:"is_new"`
	IsHot      bool           `json:"is_hot"`
	TotalStock int            `json:"total_stock"`
	Variants   []VariantStock `json:"sku_details"`
	URL        string         `json:"url"`
}

// InStock reports whether the product has any purchasable quantity.
func (p ProductAvailability) InStock() bool {
	return p.TotalStock > 0
}

// StockSnapshot is the complete, partitioned availability view of a
// collection for one run. Built once per run and not modified afterwards.
type StockSnapshot struct {
	InStock    []ProductAvailability
	OutOfStock []ProductAvailability
}

// Total returns the number of products in the snapshot (both partitions).
func (s *StockSnapshot) Total() int {
	return len(s.InStock) + len(s.OutOfStock)
}

// InStockIDs returns the ids of the in-stock partition in snapshot order.
func (s *StockSnapshot) InStockIDs() []int64 {
	ids := make([]int64, 0, len(s.InStock))
	for _, p := range s.InStock {
		ids = append(ids, p.ID)
	}
	return ids
}
