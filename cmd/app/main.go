package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/local/pdfword/internal/cli"
	cfgpkg "github.com/local/pdfword/internal/config"
	logpkg "github.com/local/pdfword/internal/logger"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := cfgpkg.FromEnv()

	// CLI output goes to stdout, so console logs go to stderr.
	if err := logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		Console:      os.Stderr,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
	}

	err := cli.New(cfg).Execute(context.Background())
	logpkg.Close()
	if err != nil {
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
