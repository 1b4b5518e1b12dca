package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trend-engine/internal/api"
	"trend-engine/internal/engine"
	"trend-engine/internal/execution"
	"trend-engine/internal/journal"
	"trend-engine/internal/market"
	"trend-engine/internal/reconcile"
	"trend-engine/internal/risk"
	"trend-engine/internal/session"
	"trend-engine/internal/state"
	"trend-engine/pkg/config"
	"trend-engine/pkg/db"
	"trend-engine/pkg/notify"
	"trend-engine/pkg/venue"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ load config: %v", err)
	}
	instruments, err := config.LoadInstruments(cfg)
	if err != nil {
		log.Fatalf("❌ load instruments: %v", err)
	}
	if len(instruments) == 0 {
		log.Fatal("❌ no instruments configured")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("⚠️ unknown timezone %q, using UTC", cfg.Timezone)
		loc = time.UTC
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("❌ open database: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("❌ migrate database: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notifier := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	client := venue.NewClient(cfg.VenueBaseURL)
	tracker := state.NewTracker()
	gate := risk.NewGate(database, loc, cfg.MaxDailyLossFraction, cfg.MaxTradesPerDay)
	trades := journal.New(database)

	var cache market.LastPriceCache
	if cfg.VenueWSURL != "" {
		stream := venue.NewTickerStream(cfg.VenueWSURL)
		names := make([]string, len(instruments))
		for i, in := range instruments {
			names[i] = in.Name
		}
		stream.Start(ctx, names)
		cache = stream
	}
	mkt := market.NewGateway(client, cache)

	deps := engine.Deps{
		Config:      cfg,
		Instruments: instruments,
		Market:      mkt,
		Gate:        gate,
		Tracker:     tracker,
		Journal:     trades,
		Notifier:    notifier,
	}

	var recon *reconcile.Reconciler
	if cfg.Live() {
		sess := session.NewManager(client, cfg.VenueAPIKey, cfg.VenueAPISecret)
		if err := sess.Authenticate(ctx); err != nil {
			log.Fatalf("❌ venue authentication failed: %v", err)
		}
		recon = reconcile.New(sess, tracker, trades, notifier)
		deps.Wallet = sess
		deps.Exec = execution.NewGateway(sess)
		deps.Recon = recon
	}

	eng := engine.New(deps)
	if recon != nil {
		recon.OnClose = eng.HandleClose
	}

	srv := api.NewServer(func() api.Status {
		day := gate.Snapshot()
		return api.Status{
			Mode:          cfg.Mode,
			Equity:        eng.Equity(),
			GateLocked:    day.Locked,
			RiskDay:       day,
			OpenPositions: tracker.Snapshot(),
		}
	}, trades)
	go func() {
		if err := srv.Run(":" + cfg.Port); err != nil {
			log.Printf("❌ http server: %v", err)
		}
	}()

	eng.Run(ctx)
}
