package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/chidi-nwosu/insight_db/insight"
	"github.com/chidi-nwosu/insight_db/models"
	"github.com/chidi-nwosu/insight_db/store"
)

func displaySalesSummary(st *store.Store) {
	query := `
		SELECT COUNT(*) as transactions,
		       COALESCE(SUM(sales_amount), 0) as total_sales,
		       COALESCE(AVG(sales_amount), 0) as avg_sale,
		       COALESCE(MIN(sale_date), '') as first_sale,
		       COALESCE(MAX(sale_date), '') as last_sale
		FROM sales_data
	`

	var transactions int
	var totalSales, avgSale float64
	var firstSale, lastSale string
	err := st.DB().QueryRow(query).Scan(&transactions, &totalSales, &avgSale, &firstSale, &lastSale)
	if err != nil {
		log.Printf("Error getting sales summary: %v", err)
		return
	}

	color.Yellow("\nSales Summary")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Transactions", "Total Sales", "Average Sale", "First Sale", "Last Sale"})
	table.Append([]string{
		fmt.Sprintf("%d", transactions),
		fmt.Sprintf("%.2f", totalSales),
		fmt.Sprintf("%.2f", avgSale),
		firstSale,
		lastSale,
	})
	table.Render()
}

func displayTopProducts(st *store.Store) {
	query := `
		SELECT p.product_name, p.category,
		       COUNT(*) as sales_count,
		       SUM(s.sales_amount) as revenue
		FROM sales_data s
		JOIN product_info p ON s.product_id = p.product_id
		GROUP BY p.product_name, p.category
		ORDER BY revenue DESC
		LIMIT 10
	`

	rows, err := st.DB().Query(query)
	if err != nil {
		log.Printf("Error getting top products: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nTop 10 Products by Revenue")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Product", "Category", "Sales", "Revenue"})

	rank := 1
	for rows.Next() {
		var name, category string
		var count int
		var revenue float64

		if err := rows.Scan(&name, &category, &count, &revenue); err != nil {
			continue
		}

		table.Append([]string{
			fmt.Sprintf("%d", rank),
			name,
			category,
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%.2f", revenue),
		})
		rank++
	}

	table.Render()
}

func displayRegionalSales(st *store.Store) {
	query := `
		SELECT region,
		       COUNT(*) as sales_count,
		       SUM(sales_amount) as total_sales,
		       AVG(sales_amount) as avg_sale
		FROM sales_data
		GROUP BY region
		ORDER BY total_sales DESC
	`

	rows, err := st.DB().Query(query)
	if err != nil {
		log.Printf("Error getting regional sales: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nSales by Region")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Region", "Sales", "Total", "Average"})

	for rows.Next() {
		var region string
		var count int
		var total, avg float64

		if err := rows.Scan(&region, &count, &total, &avg); err != nil {
			continue
		}

		table.Append([]string{
			region,
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%.2f", total),
			fmt.Sprintf("%.2f", avg),
		})
	}

	table.Render()
}

func displayCategoryRevenue(st *store.Store) {
	query := `
		SELECT p.category,
		       COUNT(DISTINCT p.product_id) as products,
		       COUNT(*) as sales_count,
		       SUM(s.sales_amount) as revenue
		FROM sales_data s
		JOIN product_info p ON s.product_id = p.product_id
		GROUP BY p.category
		ORDER BY revenue DESC
	`

	rows, err := st.DB().Query(query)
	if err != nil {
		log.Printf("Error getting category revenue: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nRevenue by Category")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Category", "Products", "Sales", "Revenue"})

	for rows.Next() {
		var category string
		var products, count int
		var revenue float64

		if err := rows.Scan(&category, &products, &count, &revenue); err != nil {
			continue
		}

		table.Append([]string{
			category,
			fmt.Sprintf("%d", products),
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%.2f", revenue),
		})
	}

	table.Render()
}

// previewImportedRows shows a handful of rows from the destination table so
// the user can eyeball the transforms right after an import.
func previewImportedRows(st *store.Store, table string) {
	switch table {
	case "sales_data":
		rows, err := st.DB().Query("SELECT product_id, sales_amount, sale_date, region FROM sales_data LIMIT 5")
		if err != nil {
			log.Printf("Error previewing rows: %v", err)
			return
		}
		defer rows.Close()

		color.Yellow("\nSample of imported rows")
		t := tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"Product ID", "Amount", "Date", "Region"})
		for rows.Next() {
			var rec models.SaleRecord
			if err := rows.Scan(&rec.ProductID, &rec.SalesAmount, &rec.SaleDate, &rec.Region); err != nil {
				continue
			}
			t.Append([]string{
				fmt.Sprintf("%d", rec.ProductID),
				fmt.Sprintf("%.2f", rec.SalesAmount),
				rec.SaleDate,
				rec.Region,
			})
		}
		t.Render()
	case "product_info":
		rows, err := st.DB().Query("SELECT product_id, product_name, category, price FROM product_info LIMIT 5")
		if err != nil {
			log.Printf("Error previewing rows: %v", err)
			return
		}
		defer rows.Close()

		color.Yellow("\nSample of imported rows")
		t := tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"Product ID", "Name", "Category", "Price"})
		for rows.Next() {
			var p models.Product
			if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Category, &p.Price); err != nil {
				continue
			}
			t.Append([]string{
				fmt.Sprintf("%d", p.ProductID),
				p.ProductName,
				p.Category,
				fmt.Sprintf("%.2f", p.Price),
			})
		}
		t.Render()
	}
}

func displaySchema(ctx context.Context, st *store.Store) {
	meta, err := insight.LoadMetadata(ctx, st)
	if err != nil {
		log.Printf("Error loading schema: %v", err)
		return
	}

	color.Yellow("\nAvailable Tables")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Columns"})
	for _, name := range meta.Tables {
		table.Append([]string{name, strings.Join(meta.Columns[name], ", ")})
	}
	table.Render()
}
