// Command rtsobserver joins a match headlessly and mirrors its state,
// logging the world digest so it can be compared with the server's.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/client"
	"github.com/ChangeCaps/robots-or-smth/internal/config"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/logging"
	gonet "github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config/server.toml", "config file")
	addr := flag.String("addr", "", "server address (overrides client.server_address)")
	name := flag.String("name", "", "player name (overrides client.name)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Client.ServerAddress = *addr
	}
	if *name != "" {
		cfg.Client.Name = *name
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	assets, err := data.LoadAssets(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	sess, err := gonet.Dial(dialCtx, cfg.Client.ServerAddress, cfg.Client.Insecure, gonet.Options{
		InQueueSize:       cfg.Network.InQueueSize,
		OutQueueSize:      cfg.Network.OutQueueSize,
		DatagramQueueSize: cfg.Network.DatagramQueueSize,
		WriteTimeout:      cfg.Network.WriteTimeout,
	}, log)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Client.ServerAddress, err)
	}
	defer sess.Close()
	log.Info("connected", zap.String("server", cfg.Client.ServerAddress))

	c := client.New(world.NewState(assets), cfg.Client.Name, cfg.Client.HelloInterval, log)
	runner := client.NewRunner(c, sess, cfg.Simulation.ChecksumInterval, log)

	err = client.Run(ctx, runner, sess, cfg.Simulation.TickRate)
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("observer stopped", zap.Uint64("ticks", runner.Ticks()))
		return nil
	case errors.Is(err, client.ErrDisconnected):
		log.Warn("server closed the connection")
		return nil
	}
	return err
}
