// Command ledger-repair re-derives stored leave balances from the leave
// history and reports every balance that moved.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/hris-portal-go/internal/config"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-portal-go/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/hris-portal-go/internal/service/leave"
)

func main() {
	userID := flag.String("user", "", "rebuild a single user's balance")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repairer leave.LedgerRepairer = leaveService.NewBalanceService(
		postgresql.NewLeaveBalanceRepository(db),
		postgresql.NewLeaveHistoryRepository(db),
		postgresql.NewTxManager(db),
	)

	var drifts []leave.Drift
	if *userID != "" {
		drift, err := repairer.RebuildBalance(ctx, *userID)
		if err != nil {
			slog.Error("Rebuild failed", "user_id", *userID, "error", err)
			os.Exit(1)
		}
		drifts = append(drifts, drift)
	} else {
		drifts, err = repairer.RebuildAll(ctx)
		if err != nil {
			slog.Error("Rebuild failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Ledger repair finished", "changed", len(drifts))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(drifts); err != nil {
		log.Fatal(err)
	}
}
