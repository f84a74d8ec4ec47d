package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/config"
	"github.com/Veraticus/aidledger/internal/engine"
	"github.com/Veraticus/aidledger/internal/ledger"
	"github.com/Veraticus/aidledger/internal/metrics"
	"github.com/Veraticus/aidledger/internal/program"
	"github.com/Veraticus/aidledger/internal/storage"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/Veraticus/aidledger/internal/verification"
	"github.com/spf13/cobra"
)

// initStorage opens the local database and brings its schema up to date.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// app holds everything a ledger-facing command needs.
type app struct {
	cfg       *config.LedgerConfig
	store     *storage.SQLiteStorage
	engine    *engine.Engine
	submitter *submit.Submitter
	out       io.Writer
}

type appOptions struct {
	metrics   *metrics.Metrics
	assumeYes bool
}

// newApp loads configuration and wires the ledger client, submitter and
// engine. Callers must Close the result.
func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.LoadLedgerConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	key, err := ledger.LoadKeypair(cfg.KeypairPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	rpcClient, err := ledger.NewRPCClient(cfg.Client(), key)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var client ledger.Client = rpcClient
	if cfg.CacheTTL > 0 {
		client = ledger.NewCachingClient(rpcClient, store, cfg.CacheTTL)
	}

	sinks := submit.MultiSink{cli.NewConsoleSink(out)}
	if opts.metrics != nil {
		sinks = append(sinks, opts.metrics)
	}
	submitter := submit.New(submit.Config{
		Sink:    sinks,
		History: store,
		Cluster: cfg.Cluster,
	})

	verifier, err := verification.NewEngine(cfg.VerificationThreshold)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	confirmer := cli.NewConfirmer(os.Stdin, out, opts.assumeYes)
	eng := engine.New(client, program.New(cfg.ProgramID), submitter, verifier, confirmer)

	slog.Debug("Ledger client ready",
		"rpc", cfg.RPCURL,
		"program", cfg.ProgramID,
		"wallet", rpcClient.Wallet(),
		"cache_ttl", cfg.CacheTTL)

	return &app{
		cfg:       cfg,
		store:     store,
		engine:    eng,
		submitter: submitter,
		out:       out,
	}, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("disaster", "", "Disaster event ID")
	cmd.Flags().String("pool", "", "Fund pool ID")
	_ = cmd.MarkFlagRequired("disaster")
	_ = cmd.MarkFlagRequired("pool")
}

func poolFlags(cmd *cobra.Command) (disasterID, poolID string) {
	disasterID, _ = cmd.Flags().GetString("disaster")
	poolID, _ = cmd.Flags().GetString("pool")
	return disasterID, poolID
}

// runMutation opens the app, runs fn and closes the app. Failures have
// already been reported on the console, so only the bare error is returned.
func runMutation(cmd *cobra.Command, fn func(ctx context.Context, a *app) (*submit.Result, error)) error {
	yes, _ := cmd.Flags().GetBool("yes")
	a, err := newApp(cmd, appOptions{assumeYes: yes})
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = fn(cmd.Context(), a)
	return err
}

func writeln(w io.Writer, s string) {
	if _, err := fmt.Fprintln(w, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
