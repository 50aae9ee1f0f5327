package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/server"
	"github.com/lguibr/dflow/stdlib"
	"github.com/lguibr/dflow/store"
	"github.com/lguibr/dflow/utils"
	"github.com/lguibr/dflow/value"
)

var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    utils.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dflow",
	Short: "Dataflow kernel and actor runtime",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = utils.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = utils.NewLogger(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the engine behind the HTTP/websocket front door",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in actor scenarios and print their results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return demo(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd, demoCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// system is an engine with the standard actors running.
type system struct {
	engine   *actor.Engine
	store    store.Store
	registry *stdlib.Registry
	named    map[string]*actor.PID
}

func startSystem() (*system, error) {
	st, err := store.Open(cfg.Store.Driver)
	if err != nil {
		return nil, err
	}
	engine := actor.NewEngine(actor.Options{
		Workers:     cfg.Engine.Workers,
		TimeSlice:   cfg.Engine.TimeSlice,
		MailboxSize: cfg.Engine.MailboxSize,
		Logger:      logger,
	})
	sys := &system{engine: engine, store: st, registry: stdlib.NewRegistry(), named: make(map[string]*actor.PID)}
	kv, err := stdlib.SpawnKV(engine, st, cfg.Store.Readers)
	if err != nil {
		sys.close()
		return nil, err
	}
	sys.named["kv"] = kv
	for name, image := range map[string]string{"calculator": "Actors.Calculator", "cell": "Actors.Cell"} {
		pid, err := sys.registry.Spawn(engine, image)
		if err != nil {
			sys.close()
			return nil, fmt.Errorf("spawn %s: %w", name, err)
		}
		sys.named[name] = pid
	}
	return sys, nil
}

func (s *system) close() {
	if err := s.engine.Shutdown(5 * time.Second); err != nil {
		logger.Warn("engine shutdown incomplete", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		logger.Warn("error closing store", zap.Error(err))
	}
}

func serve(ctx context.Context) error {
	sys, err := startSystem()
	if err != nil {
		return err
	}
	defer sys.close()

	front := server.New(sys.engine, server.Options{
		AskTimeout: cfg.Engine.AskTimeout,
		RateLimit:  cfg.Server.RateLimit,
		Burst:      cfg.Server.Burst,
		Logger:     logger,
	})
	for name, pid := range sys.named {
		front.Register(name, pid)
	}
	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: front.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func demo(cmd *cobra.Command) error {
	sys, err := startSystem()
	if err != nil {
		return err
	}
	defer sys.close()
	timeout := cfg.Engine.AskTimeout
	ask := func(name string, payload value.Complete) error {
		got, err := sys.engine.Ask(sys.named[name], payload, timeout)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		cmd.Printf("%-10s %-28s -> %s\n", name, value.Format(payload), value.Format(got))
		return nil
	}

	if err := ask("calculator", value.Str("calculate")); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		sys.engine.Tell(sys.named["cell"], value.Str("incr"))
	}
	if err := ask("cell", value.Str("get")); err != nil {
		return err
	}
	for _, payload := range []value.Complete{
		stdlib.PutRequest("answer", value.Int64(42)),
		stdlib.GetRequest("answer"),
		stdlib.GetRequest("missing"),
		value.Str("bogus"),
	} {
		if err := ask("kv", payload); err != nil {
			return err
		}
	}
	return nil
}
