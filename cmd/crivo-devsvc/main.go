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

	"crivo-thalam/devsvc/app"
)

func main() {
	a, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to bootstrap dev service: %v\n", err)
		os.Exit(1)
	}
	defer a.Storage.Close()

	server := &http.Server{
		Addr:           ":" + a.Config.ServerPort,
		Handler:        a.Router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		a.Log.Info().Str("addr", server.Addr).Str("public_url", a.Config.PublicURL).Msg("dev service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	a.Log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Log.Error().Err(err).Msg("server shutdown error")
	}
}
