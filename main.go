package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/chidi-nwosu/insight_db/cache"
	"github.com/chidi-nwosu/insight_db/chat"
	"github.com/chidi-nwosu/insight_db/config"
	"github.com/chidi-nwosu/insight_db/importer"
	"github.com/chidi-nwosu/insight_db/insight"
	"github.com/chidi-nwosu/insight_db/migrations"
	"github.com/chidi-nwosu/insight_db/queue"
	"github.com/chidi-nwosu/insight_db/server"
	"github.com/chidi-nwosu/insight_db/store"
)

func main() {
	serve := flag.Bool("serve", false, "start the HTTP chat UI instead of the terminal menu")
	initDB := flag.Bool("init-db", false, "create the database schema and exit")
	importFile := flag.String("import", "", "import a CSV file and exit")
	importTable := flag.String("table", "sales_data", "destination table for -import (sales_data or product_info)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.InitSchema(ctx, st.DB()); err != nil {
		log.Printf("Warning: Error initializing schema: %v", err)
	}

	if *initDB {
		if err := migrations.VerifySchema(ctx, st.DB(), st.Driver()); err != nil {
			log.Fatal(err)
		}
		color.Green("Database and tables created successfully.")
		return
	}

	if *importFile != "" {
		if err := runImport(ctx, st, cfg, *importFile, *importTable); err != nil {
			log.Fatal(err)
		}
		return
	}

	engine, err := buildEngine(ctx, cfg, st)
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	if *serve {
		if err := server.New(cfg.HTTPAddr, engine, st).Run(ctx); err != nil {
			log.Fatal(err)
		}
		return
	}

	runMenu(ctx, engine, st, cfg)
}

func buildEngine(ctx context.Context, cfg *config.Config, st *store.Store) (*insight.Engine, error) {
	var provider insight.Provider
	var err error
	switch cfg.Provider {
	case "openai":
		provider, err = insight.NewOpenAIProvider(insight.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
		})
	default:
		provider, err = insight.NewGeminiProvider(ctx, cfg.GoogleKeys(), cfg.Model)
	}
	if err != nil {
		return nil, err
	}

	var respCache cache.ResponseCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		respCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, "insight")
		if err != nil {
			log.Printf("Warning: response cache disabled: %v", err)
			respCache = cache.Noop{}
		}
	}

	var audit insight.AuditSink
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := queue.NewAuditPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Printf("Warning: audit publishing disabled: %v", err)
		} else {
			audit = publisher
		}
	}

	return insight.NewEngine(insight.Config{
		Store:    st,
		Provider: provider,
		Cache:    respCache,
		Audit:    audit,
	})
}

func runMenu(ctx context.Context, engine *insight.Engine, st *store.Store, cfg *config.Config) {
	for {
		if ctx.Err() != nil {
			return
		}
		displayMenu()
		choice := readChoice()

		switch choice {
		case "1":
			session := chat.NewSession(engine, os.Stdin, os.Stdout)
			if err := session.Run(ctx); err != nil && ctx.Err() == nil {
				color.Red("Chat session ended: %v", err)
			}
		case "2":
			displaySalesSummary(st)
		case "3":
			displayTopProducts(st)
		case "4":
			displayRegionalSales(st)
		case "5":
			displayCategoryRevenue(st)
		case "6":
			displaySchema(ctx, st)
		case "7":
			handleImport(ctx, st, cfg)
		case "8":
			handleAnalyzeImport(ctx, st, cfg)
		case "9":
			handleResetSchema(ctx, st)
		case "10":
			color.Green("Thank you for using AI-Driven Business Insights!")
			return
		default:
			color.Red("Invalid choice. Please try again.")
		}
	}
}

func displayMenu() {
	color.Cyan("\n=== AI-Driven Business Insights ===")
	fmt.Println("1. Ask the Data (AI chat)")
	fmt.Println("2. Sales Summary")
	fmt.Println("3. Top Selling Products")
	fmt.Println("4. Regional Sales")
	fmt.Println("5. Category Revenue")
	fmt.Println("6. Show Table Schema")
	fmt.Println("7. Import CSV Data")
	fmt.Println("8. Analyze Failed Imports")
	fmt.Println("9. Reset Schema")
	fmt.Println("10. Exit")
	fmt.Print("\nEnter your choice (1-10): ")
}

func handleImport(ctx context.Context, st *store.Store, cfg *config.Config) {
	fmt.Print("Enter the CSV file path: ")
	filename := readString()

	fmt.Print("Destination table (sales_data/product_info): ")
	table := readString()
	if table == "" {
		table = "sales_data"
	}

	fmt.Printf("\nUsing %d workers for parallel processing\n", cfg.WorkerCount)
	fmt.Printf("Ready to import data from %s into %s\n", filename, table)
	fmt.Print("Proceed with import? (y/n): ")
	if strings.ToLower(readString()) != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	if err := runImport(ctx, st, cfg, filename, table); err != nil {
		color.Red("Error importing data: %v", err)
		return
	}
	color.Green("Import completed successfully!")
}

func runImport(ctx context.Context, st *store.Store, cfg *config.Config, filename, table string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	result, err := importer.ImportData(ctx, st, importer.ImportConfig{
		Table:       table,
		SourceFile:  filename,
		BatchSize:   importer.DefaultBatchSize,
		WorkerCount: cfg.WorkerCount,
	}, csv.NewReader(file))
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d rows (%d failed)\n", result.SuccessCount, result.FailedCount)
	if result.FailedCount > 0 {
		color.Yellow("Run 'Analyze Failed Imports' to see why rows were rejected.")
	}
	if result.SuccessCount > 0 {
		previewImportedRows(st, table)
	}
	return nil
}

func handleAnalyzeImport(ctx context.Context, st *store.Store, cfg *config.Config) {
	fmt.Print("Enter the path to the CSV file to analyze: ")
	filename := readString()

	fmt.Print("Destination table (sales_data/product_info): ")
	table := readString()
	if table == "" {
		table = "sales_data"
	}

	file, err := os.Open(filename)
	if err != nil {
		color.Red("Error opening file: %v", err)
		return
	}
	defer file.Close()

	imp := importer.NewDataImporter(st, importer.ImportConfig{Table: table, SourceFile: filename})
	reasons, err := imp.AnalyzeFailedImports(ctx, csv.NewReader(file))
	if err != nil {
		color.Red("Error analyzing imports: %v", err)
		return
	}

	if len(reasons) == 0 {
		color.Green("All rows would import cleanly.")
		return
	}
	color.Yellow("\nRows that would fail, by reason:")
	for reason, count := range reasons {
		fmt.Printf("  %-30s %d\n", reason, count)
	}
}

func handleResetSchema(ctx context.Context, st *store.Store) {
	fmt.Print("This drops sales_data and product_info. Continue? (y/n): ")
	if strings.ToLower(readString()) != "y" {
		fmt.Println("Reset cancelled.")
		return
	}
	if err := migrations.ResetSchema(ctx, st.DB()); err != nil {
		color.Red("Error resetting schema: %v", err)
		return
	}
	color.Green("Schema reset successfully.")
}

func readChoice() string {
	var input string
	fmt.Scanln(&input)
	return strings.TrimSpace(input)
}

func readString() string {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}
