package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"mazeforge.ai/internal/config"
)

func main() {
	var (
		levelPath  = flag.String("level", "", "path to one level .json")
		levelDir   = flag.String("dir", "", "directory of level .json files")
		configPath = flag.String("config", "./configs/solver.yaml", "solver config (empty for defaults)")
		outDir     = flag.String("out", "", "write solution documents here (optional)")
		recordsDir = flag.String("records", "", "solve records dir, overrides records_dir")
		dbPath     = flag.String("db", "", "sqlite index path, overrides index_db")
		seed       = flag.Int64("seed", 0, "synthesizer seed, overrides seed when non-zero")
		printProg  = flag.Bool("print", false, "print each program in block notation")
	)
	flag.Parse()

	if (*levelPath == "") == (*levelDir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -level or -dir is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}
	if *recordsDir != "" {
		cfg.RecordsDir = *recordsDir
	}
	if *dbPath != "" {
		cfg.IndexDB = *dbPath
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	paths := []string{*levelPath}
	if *levelDir != "" {
		paths, err = listLevels(*levelDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list levels:", err)
			os.Exit(1)
		}
	}

	logger := log.New(os.Stdout, "[solve] ", log.LstdFlags|log.Lmicroseconds)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := newBatch(ctx, batchConfig{
		RunID:  uuid.NewString(),
		Config: cfg,
		OutDir: *outDir,
		Print:  *printProg,
		Stdout: os.Stdout,
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		os.Exit(1)
	}
	sum, runErr := b.run(ctx, paths)
	if err := b.close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	logger.Printf("run=%s levels=%d ok=%d unsolvable=%d malformed=%d budget=%d",
		b.runID, sum.Total, sum.OK, sum.Unsolvable, sum.Malformed, sum.Budget)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "solve:", runErr)
		os.Exit(1)
	}
}
