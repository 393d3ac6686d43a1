package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/services/run"

	_ "modernc.org/sqlite"
)

// runExtraction drives the shared extract-export-persist pipeline used
// by both the news and the social commands.
func runExtraction(ctx context.Context, cfg Config, label string, rec *auditlog.Recorder, sources []run.Source) *run.Run {
	r := run.New(rec, cfg.runOptions())

	var db *sql.DB
	var store run.Store
	if cfg.StorePath != "" {
		var err error
		db, err = sql.Open("sqlite", cfg.StorePath)
		if err != nil {
			serviceutil.Fatal("failed to open record store", err)
		}
		store = run.NewStore(db)
		if err := store.Init(ctx); err != nil {
			serviceutil.Fatal("failed to initialize record store", err)
		}
		r.Known = store.Known
	}

	t1 := time.Now()
	if err := r.Execute(ctx, sources); err != nil {
		serviceutil.Fatal("invalid source configuration", err)
	}
	slog.Info("extraction time", "seconds", time.Since(t1).Seconds())

	if db != nil {
		if err := store.Push(ctx, r.ID, r.Records()); err != nil {
			slog.Error("failed to persist records", "err", err)
		}
		logStore := auditlog.NewStore(db)
		if err := logStore.Init(ctx); err != nil {
			slog.Error("failed to initialize fetch log store", "err", err)
		} else if err := logStore.Push(ctx, r.ID, rec.Entries()); err != nil {
			slog.Error("failed to persist fetch log", "err", err)
		}
		db.Close()
	}

	exportFiles(cfg, r, label)
	run.RenderSummary(os.Stdout, r.Summarize())
	return r
}

func exportFiles(cfg Config, r *run.Run, label string) {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		serviceutil.Fatal("failed to create output directory", err)
	}
	base := fmt.Sprintf("%s-%s-%s", label, time.Now().Format("2006-01-02"), r.ID)

	if cfg.Output.Format == "csv" || cfg.Output.Format == "both" {
		writeFile(filepath.Join(cfg.Output.Dir, base+".csv"), r.WriteCSV)
	}
	if cfg.Output.Format == "json" || cfg.Output.Format == "both" {
		writeFile(filepath.Join(cfg.Output.Dir, base+".json"), r.WriteJSON)
	}
	// the fetch log always ships with the results
	writeFile(filepath.Join(cfg.Output.Dir, base+"-fetchlog.csv"), r.Recorder().WriteCSV)
}

func writeFile(path string, write func(w io.Writer) error) {
	file, err := os.Create(path)
	if err != nil {
		serviceutil.Fatal("failed to create output file", err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		serviceutil.Fatal("failed to write output file", err)
	}
	slog.Info("wrote output", "path", path)
}
