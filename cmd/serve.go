package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/unijobs/unijobs/pkg/api"
	"github.com/unijobs/unijobs/pkg/config"
	"github.com/unijobs/unijobs/pkg/log"
	"github.com/unijobs/unijobs/pkg/realtime"
	"github.com/unijobs/unijobs/pkg/search"
	"github.com/urfave/cli/v3"
)

var serveLogger = log.ForComponent("serve")

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override the configured listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured listen port",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	configPath := c.String("config")
	cfg, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if host := c.String("host"); host != "" {
		cfg.Host = host
	}
	if port := c.Int("port"); port != 0 {
		cfg.Port = port
	}

	hub := realtime.NewHub(cfg.FirehoseBuffer)
	store.SetEventHub(hub)

	searcher := search.NewService(store, cfg.MaxPageSize)
	server := api.NewServer(store, searcher, hub, cfg.AdminKey)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api.CorsMiddleware(gzhttp.GzipHandler(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		serveLogger.Infof("listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Watch the config file so admin key rotations apply without a restart.
	// Listen address and database changes still require one. When the watcher
	// cannot be created the channels stay nil, which a select never fires on.
	var (
		watchEvents chan fsnotify.Event
		watchErrors chan error
	)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		serveLogger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				serveLogger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
		if err := watcher.Add(configPath); err != nil {
			serveLogger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			serveLogger.Infof("watching config file for changes: %s", configPath)
		}
	}

	shutdown := func() error {
		serveLogger.Infof("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			return shutdown()
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				reloadAdminKey(configPath, server)
			default:
				return shutdown()
			}
		case event, ok := <-watchEvents:
			if !ok {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				// Editors often replace the file; give the write a moment and
				// re-add the path in case the inode changed.
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); err == nil {
					if err := watcher.Add(configPath); err != nil {
						serveLogger.Warnf("failed to re-watch config file: %v", err)
					}
					reloadAdminKey(configPath, server)
				}
			}
		case err, ok := <-watchErrors:
			if !ok {
				continue
			}
			serveLogger.Warnf("config file watcher error: %v", err)
		}
	}
}

func reloadAdminKey(configPath string, server *api.Server) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		serveLogger.Errorf("failed to reload config: %v", err)
		return
	}
	server.SetAdminKey(cfg.AdminKey)
	serveLogger.Infof("configuration reloaded")
}
