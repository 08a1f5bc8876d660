/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/devopsuser8413/reportpipe/webapp"
)

var serveUsage = strings.TrimSpace(`
Run the session-login demo web app.  It exists so the dynamic security scan in the pipeline has a
real login flow to probe; point the scanner at the listen address.
`)

var (
	ListenAddr      string
	InsecureCookies bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the login demo web app",
	Long:  serveUsage,
	Args:  cobra.ExactArgs(0),
	RunE:  serveRun,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&ListenAddr, "listen-addr", defaultListenAddr(), "address for the web app to listen on (respects PORT)")
	serveCmd.Flags().BoolVar(&InsecureCookies, "insecure-cookies", false, "allow session cookies over plain http, for local runs")
}

func defaultListenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":5000"
}

func serveRun(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv, err := webapp.NewServer(webapp.Config{
		SecretKey:     []byte(os.Getenv("SESSION_SECRET")),
		SecureCookies: !InsecureCookies,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("serve: shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
