package models

// SaleRecord represents one row of the sales_data table
type SaleRecord struct {
	ProductID   int     `db:"product_id" json:"product_id"`
	SalesAmount float64 `db:"sales_amount" json:"sales_amount"`
	SaleDate    string  `db:"sale_date" json:"sale_date"`
	Region      string  `db:"region" json:"region"`
}
