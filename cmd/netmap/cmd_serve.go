package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/api"
	"github.com/jbweber/homelab/netmap/internal/catalog"
	"github.com/jbweber/homelab/netmap/internal/config"
	"github.com/jbweber/homelab/netmap/internal/configstore"
	"github.com/jbweber/homelab/netmap/internal/datastore"
	"github.com/jbweber/homelab/netmap/internal/notify"
	"github.com/jbweber/homelab/netmap/internal/repository"
	"github.com/jbweber/homelab/netmap/internal/sandbox"
	"github.com/jbweber/homelab/netmap/internal/server"
	"github.com/jbweber/homelab/netmap/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	cmd.Flags().String("host", "", "listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().String("root", "", "sandbox root (overrides sandbox.root)")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	v, err := config.Load(configPath)
	if err != nil {
		return err
	}
	for key, flag := range map[string]string{
		"server.host":  "host",
		"server.port":  "port",
		"sandbox.root": "root",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", flag, err)
			}
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := cfg.InitializeDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	recent := repository.NewRecentDocumentRepository(datastore.NewWithDB(db))

	guard, err := newGuard(cfg.Sandbox)
	if err != nil {
		return err
	}

	notes := notify.NewService(notify.Options{
		Retention: cfg.Notifications.Retention,
		ToastTTL:  cfg.Notifications.ToastTTL,
	})
	hub := notify.NewHub(notes, logger.Named("ws"), notify.WithOriginPatterns(cfg.Server.AllowedOrigins...))

	ws := workspace.New(workspace.Options{
		Files:    configstore.New(),
		Paths:    guard,
		Notifier: notes,
		History:  recent,
		Logger:   logger.Named("workspace"),
	})

	catalogs := catalog.NewLoader(cfg.Assets.InterfacesDir)
	handlers := api.NewAPI(api.Deps{
		Guard:         guard,
		Workspace:     ws,
		Catalogs:      catalogs,
		IconsDir:      cfg.Assets.IconsDir,
		Notifications: notes,
		Hub:           hub,
		Recent:        recent,
		Logger:        logger.Named("api"),
	})

	srv := server.New(server.Options{
		Addr:          cfg.Addr(),
		IconsDir:      cfg.Assets.IconsDir,
		InterfacesDir: cfg.Assets.InterfacesDir,
		DistDir:       cfg.Assets.DistDir,
		Logger:        logger,
	}, handlers)

	logger.Info("netmap starting",
		zap.String("version", version),
		zap.String("addr", cfg.Addr()),
		zap.String("sandbox", guard.Root()),
		zap.String("database", cfg.Database.Path),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadCatalogs(ctx, hup, catalogs, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// reloadCatalogs drops the cached interface catalogs on every signal so
// edited catalog files are picked up without a restart.
func reloadCatalogs(ctx context.Context, signals <-chan os.Signal, catalogs *catalog.Loader, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			catalogs.Invalidate()
			logger.Info("interface catalogs reloaded", zap.String("dir", catalogs.Dir()))
		}
	}
}

// newGuard roots the sandbox at the configured directory, or the user's
// home directory when none is set.
func newGuard(c config.SandboxConfig) (*sandbox.Guard, error) {
	opt := sandbox.WithSymlinkCheck(c.FollowSymlinks)
	if c.Root == "" {
		return sandbox.NewHome(opt)
	}
	return sandbox.New(c.Root, opt)
}
