package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notepulse-hq/note-pulse/internal/config"
	"github.com/notepulse-hq/note-pulse/internal/domain"
	"github.com/notepulse-hq/note-pulse/internal/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var week, out string
	flag.StringVar(&week, "week", domain.Today(), "week to report on (YYYY-MM-DD, snapped back to Monday)")
	flag.StringVar(&out, "out", "", "output file (default stdout)")
	flag.Parse()

	weekStart, err := report.NormalizeWeekStart(week)
	if err != nil {
		return err
	}

	articles, err := report.LoadArticles(filepath.Join(cfg.DataDir, "articles.csv"))
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}
	cats, err := report.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	summaries, err := report.LoadDailySummaries(filepath.Join(cfg.DataDir, "daily_summary.csv"))
	if err != nil {
		return fmt.Errorf("load daily summaries: %w", err)
	}

	md, err := report.Generate(weekStart, articles, cats, summaries)
	if err != nil {
		return err
	}

	if out == "" {
		fmt.Print(md)
		return nil
	}
	if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
