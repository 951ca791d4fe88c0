package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"storefront-console/internal/app"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	if len(args) == 0 {
		usage()
	}

	switch args[0] {
	case "stock", "st":
		levels, err := svc.GetStockLevels(ctx)
		if err != nil {
			log.Fatalf("Failed to load stock levels: %v", err)
		}
		printJSON(levels)

	case "items", "it":
		activeOnly := len(args) > 1 && args[1] == "--active"
		items, err := svc.ListStockItems(ctx, activeOnly)
		if err != nil {
			log.Fatalf("Failed to load items: %v", err)
		}
		printJSON(items)

	case "movements", "mov":
		if len(args) < 2 {
			log.Fatal("Usage: console movements <stock-item-id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid stock item id: %s", args[1])
		}
		ms, err := svc.GetMovements(ctx, id)
		if err != nil {
			log.Fatalf("Failed to load movements: %v", err)
		}
		printJSON(ms)

	case "sync-rates", "sync":
		result, err := svc.SyncRates(ctx)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		fmt.Printf("rate %s: %d scanned, %d updated, %d failed\n",
			result.Rate, result.Scanned, result.Updated, len(result.Failures))
		for _, f := range result.Failures {
			fmt.Fprintln(os.Stderr, "  failed:", f.Error())
		}
		if len(result.Failures) > 0 {
			os.Exit(1)
		}

	case "import", "imp":
		if len(args) < 2 {
			log.Fatal("Usage: console import <workbook.xlsx>")
		}
		f, err := os.Open(args[1])
		if err != nil {
			log.Fatalf("Failed to open workbook: %v", err)
		}
		defer f.Close()
		result, err := svc.ImportWorkbook(ctx, f)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("batch %s: %d rows, %d created, %d updated, %d errors\n",
			result.BatchID, result.Total, result.Created, result.Updated, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, "  ", e.Error())
		}
		if len(result.Errors) > 0 {
			os.Exit(1)
		}

	case "monthly-sales", "sales":
		year := time.Now().Year()
		if len(args) > 1 {
			y, err := strconv.Atoi(args[1])
			if err != nil {
				log.Fatalf("Invalid year: %s", args[1])
			}
			year = y
		}
		rows, err := svc.MonthlySales(ctx, year)
		if err != nil {
			log.Fatalf("Failed to load monthly sales: %v", err)
		}
		printJSON(rows)

	default:
		usage()
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: console <command>

Commands:
  stock                  print stock levels per item and pool
  items [--active]       print catalog items
  movements <item-id>    print the movement audit trail for an item
  sync-rates             run the currency sync once
  import <file.xlsx>     import a supplier workbook
  monthly-sales [year]   print per-month order totals`)
	os.Exit(2)
}
