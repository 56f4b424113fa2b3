package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/logger"
	"github.com/radieske/bet-tracker/internal/tracker/interchange"
	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/snapshot"
)

func main() {
	format := flag.String("format", "json", "formato: json|csv|txt")
	out := flag.String("out", "", "arquivo de saída (vazio = nome padrão, - = stdout)")
	backendName := flag.String("backend", "", "sobrescreve SNAPSHOT_BACKEND (redis|postgres)")
	flag.Parse()

	log := logger.NewCLI("tracker-export")
	defer log.Sync()

	cfg := config.Load()
	if *backendName != "" {
		cfg.SnapshotBackend = *backendName
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, *format, *out, time.Now().UTC()); err != nil {
		log.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, format, out string, now time.Time) error {
	backend, err := snapshot.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	doc, ok, err := backend.Store.Load(ctx)
	if err != nil {
		return err
	}
	state := model.NewState()
	if ok {
		if state, err = interchange.DecodeSnapshot(doc); err != nil {
			return err
		}
	}
	state.NormalizeDefaultNames()
	ledger.Apply(state)

	body, err := render(state, format, now)
	if err != nil {
		return err
	}
	if out == "-" {
		_, err = os.Stdout.Write(body)
		return err
	}
	if out == "" {
		out = interchange.FileName(format, now)
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintln(os.Stderr, out)
	return nil
}

func render(s *model.State, format string, now time.Time) ([]byte, error) {
	switch format {
	case "json":
		return interchange.ExportJSON(s, now)
	case "csv":
		return interchange.ExportCSV(s.Bets), nil
	case "txt":
		return interchange.ExportTXT(s, now), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
