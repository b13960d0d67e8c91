package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"salonpro-agenda/config"
	"salonpro-agenda/events"
	"salonpro-agenda/logger"
	"salonpro-agenda/metrics"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger

	rootCmd = &cobra.Command{
		Use:               "salonpro-agenda",
		Short:             "Salon scheduling and ledger backend",
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		RunE:              runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE:  runServe,
	}
	serveCmd.Flags().Bool("print-routes", false, "print the registered routes on startup")
	serveCmd.Flags().Bool("migrate", true, "migrate the schema and seed default categories before serving")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed default categories",
		RunE:  runMigrate,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed-categories",
		Short: "Insert the missing default public categories",
		RunE:  runSeedCategories,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "consume-events",
		Short: "Feed appointment events from RabbitMQ into the ledger",
		RunE:  runConsumeEvents,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	log, err = logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = utils.GenerateJWTSecret()
		log.Warn("jwt.secret not set, using a random secret; tokens will not survive restarts")
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := config.Migrate(a.db); err != nil {
			return err
		}
		if err := a.seedCategories(ctx); err != nil {
			return err
		}
	}

	r := a.router(utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry))
	if show, _ := cmd.Flags().GetBool("print-routes"); show {
		printRoutes(r)
	}

	var wg sync.WaitGroup
	if a.amqp != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := events.RunConsumer(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, a.ledger, log.Named("consumer"))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Jobs.Enabled {
		runner, err := a.jobs()
		if err != nil {
			return err
		}
		runner.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			runner.Stop(stopCtx)
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}
	wg.Wait()
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := config.Migrate(a.db); err != nil {
		return err
	}
	log.Info("schema migrated")
	return a.seedCategories(cmd.Context())
}

func runSeedCategories(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.seedCategories(cmd.Context())
}

func runConsumeEvents(cmd *cobra.Command, _ []string) error {
	if cfg.AMQP.URL == "" {
		return errors.New("amqp.url is required to consume events")
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("consuming events", zap.String("queue", cfg.AMQP.Queue))
	err = events.RunConsumer(cmd.Context(), cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, a.ledger, log.Named("consumer"))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
