package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/config"
	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/core/parallel"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/handler"
	"github.com/ChangeCaps/robots-or-smth/internal/logging"
	gonet "github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/persist"
	"github.com/ChangeCaps/robots-or-smth/internal/scripting"
	"github.com/ChangeCaps/robots-or-smth/internal/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("RTS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Server.StartTime = time.Now().Unix()

	// 2. Init logger
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load assets and the match map
	assets, err := data.LoadAssets(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	units, anims, unitAnims, maps := assets.Counts()
	log.Info("assets loaded",
		zap.Int("units", units),
		zap.Int("animation_sets", anims),
		zap.Int("unit_animation_sets", unitAnims),
		zap.Int("maps", maps),
	)
	m, ok := assets.Map(cfg.Server.Map)
	if !ok {
		return fmt.Errorf("map %q not found in %s", cfg.Server.Map, cfg.Data.Dir)
	}

	// 4. Optional Lua damage hook
	var hook system.DamageHook
	if cfg.Scripting.Dir != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
		hook = engine
	}

	// 5. Optional match journal
	matchID := persist.NewMatchID()
	var journal system.JournalSink
	var finish func()
	if cfg.Database.Enabled {
		j, stop, err := openJournal(cfg, matchID, log)
		if err != nil {
			return err
		}
		journal, finish = j, stop
	}

	// 6. World, handlers, transport
	ws := world.NewState(assets)
	sessions := gonet.NewSessionStore()
	bus := event.NewBus()

	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, &handler.Deps{
		Config:   cfg,
		Log:      log,
		World:    ws,
		Sessions: sessions,
		Bus:      bus,
		Map:      m,
		Match:    matchID.String(),
	})

	tlsConf, err := gonet.ServerTLS(cfg.Network.CertFile, cfg.Network.KeyFile)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	opts := gonet.Options{
		InQueueSize:       cfg.Network.InQueueSize,
		OutQueueSize:      cfg.Network.OutQueueSize,
		DatagramQueueSize: cfg.Network.DatagramQueueSize,
		WriteTimeout:      cfg.Network.WriteTimeout,
	}
	if cfg.RateLimit.Enabled {
		opts.MessagesPerSecond = cfg.RateLimit.MessagesPerSecond
		opts.Burst = cfg.RateLimit.Burst
	}
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, tlsConf, opts, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 7. Systems
	runner := system.NewServerRunner(system.ServerSetup{
		World:             ws,
		Source:            netServer,
		Registry:          pktReg,
		Sessions:          sessions,
		Bus:               bus,
		Pool:              parallel.NewPool(cfg.Simulation.Workers),
		Hook:              hook,
		Journal:           journal,
		MaxPacketsPerTick: cfg.Network.MaxPacketsPerTick,
		ChecksumInterval:  cfg.Simulation.ChecksumInterval,
		SnapshotInterval:  cfg.Simulation.SnapshotInterval,
		Seed:              cfg.Simulation.Seed,
		Log:               log,
	})

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	log.Info("server ready",
		zap.String("name", cfg.Server.Name),
		zap.Stringer("addr", netServer.Addr()),
		zap.String("map", m.Name),
		zap.Int("players", len(m.Players)),
		zap.Duration("tick", cfg.Simulation.TickRate),
		zap.String("match", matchID.String()),
	)

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			netServer.Shutdown()
			if finish != nil {
				finish()
			}
			log.Info("server stopped", zap.Uint64("ticks", runner.Ticks()))
			return nil
		}
	}
}

// openJournal connects to PostgreSQL, migrates, records the match and
// starts the background writer. stop flushes the writer and closes the
// match row.
func openJournal(cfg *config.Config, matchID uuid.UUID, log *zap.Logger) (system.JournalSink, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	repo := persist.NewJournalRepo(db)
	startedAt := time.Unix(cfg.Server.StartTime, 0)
	if err := repo.CreateMatch(ctx, matchID, cfg.Server.Map, cfg.Server.Name, startedAt); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create match: %w", err)
	}

	writer := persist.NewJournalWriter(repo, matchID, cfg.Database.JournalBuffer, log)
	go writer.Run()

	stop := func() {
		writer.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.EndMatch(ctx, matchID, time.Now()); err != nil {
			log.Error("end match", zap.Error(err))
		}
		if n := writer.Dropped(); n > 0 {
			log.Warn("journal entries dropped", zap.Int("entries", n))
		}
		db.Close()
	}
	return writer, stop, nil
}
