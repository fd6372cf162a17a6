package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"finrisk/internal"
	"finrisk/internal/config"
	"finrisk/internal/logger"
	"finrisk/internal/pipeline"
	"finrisk/internal/storage"
	"finrisk/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(logger.Init(cfg.LogLevel))

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "sheets":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		blob, err := os.ReadFile(*input)
		must(err)
		sheets, err := pipeline.ListSheets(blob)
		must(err)
		for _, s := range sheets {
			fmt.Println(s)
		}
	case "analyze":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "xlsx|html|eml path")
		sheet := fs.String("sheet", cfg.DefaultSheet, "sheet name (default: first)")
		output := fs.String("output", "", "cleaned xlsx output path (optional)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		res, err := pipeline.NewProcessingService(db, cfg).ProcessFile(ctx, *input, *sheet, *output)
		must(err)
		printSummary(res.Clean, res.Summary)
		if res.OutputPath != "" {
			fmt.Printf("exported %d rows to %s\n", len(res.Clean.Rows), res.OutputPath)
		}
	case "process:pending":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		batch := fs.Int("batch", 20, "batch size")
		outDir := fs.String("out-dir", cfg.OutputDir, "export directory, empty to skip export")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		processed, failed, err := pipeline.NewProcessingService(db, cfg).ProcessPending(ctx, *batch, *outDir)
		must(err)
		fmt.Printf("processed pending uploads=%d failed=%d\n", processed, failed)
	case "upload:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int("id", 0, "upload id")
		output := fs.String("output", "", "cleaned xlsx output path (optional)")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		upload, err := db.MustUploadByID(*id)
		must(err)
		res, err := pipeline.NewProcessingService(db, cfg).ProcessUpload(ctx, upload, *output)
		must(err)
		printSummary(res.Clean, res.Summary)
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s  upload=%d sheet=%q rows=%d risk=%.2f repair_min=%.1f trace=%s\n",
				r.CreatedAt, r.UploadID, r.Sheet, r.Rows, r.TotalRisk, r.RepairMin, r.TraceID)
		}
	case "watch":
		must(cfg.Require("INBOX_DIR", cfg.InboxDir))
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		must(watcher.NewService(db, cfg).Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func printSummary(clean internal.CleanDataset, s internal.Summary) {
	fmt.Printf("sheet=%q rows=%d\n", clean.Sheet, s.TotalErrors)
	fmt.Printf("  errors:         %d\n", s.TotalErrors)
	fmt.Printf("  repair hours:   %.1f\n", s.TotalRepairHours)
	fmt.Printf("  financial risk: %.2f EUR\n", s.TotalRisk)
	fmt.Printf("  recurring:      %d\n", s.RecurringCount)
	for _, b := range s.ByErrorType {
		fmt.Printf("  type %-30s count=%d risk=%.2f\n", b.Key, b.Count, b.Risk)
	}
	if len(clean.DuplicateColumns) > 0 {
		fmt.Printf("  duplicate columns: %s\n", strings.Join(clean.DuplicateColumns, "; "))
	}
	if n := len(s.RepairOutliers); n > 0 {
		fmt.Printf("  repair outliers (>8h or <0): %d rows\n", n)
	}
	if n := len(s.UnparseableAmount); n > 0 {
		fmt.Printf("  unparseable amounts: %d rows\n", n)
	}
}

func usage() {
	fmt.Println("usage: finrisk <command>")
	fmt.Println("commands:")
	fmt.Println("  sheets --input=errors.xlsx")
	fmt.Println("  analyze --input=errors.xlsx|report.html|mail.eml [--sheet=...] [--output=./out/clean.xlsx]")
	fmt.Println("  process:pending [--batch=20] [--out-dir=./out]")
	fmt.Println("  upload:process --id=1 [--output=./out/clean.xlsx]")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
