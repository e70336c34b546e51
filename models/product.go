package models

// Product represents the product_info table
type Product struct {
	ProductID   int     `db:"product_id" json:"product_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	Category    string  `db:"category" json:"category"`
	Price       float64 `db:"price" json:"price"`
}
