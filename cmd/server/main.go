package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/logging"
	"github.com/jrsteele09/go-auth-client/server"
	"github.com/jrsteele09/go-auth-client/token/keys"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-client/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-client/users/repofake"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetLogFormat(), os.Stderr)
	displayAppname(c.GetAppName())

	keyPair, err := keys.LoadOrCreateKeyPair(c.GetSigningKeyFile(), c.GetSigningKeyID())
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}

	// Accounts and refresh tokens live in memory: restarting the backend
	// logs everyone out.
	handler, err := server.New(c, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, keys.NewKeyPairSigner(keyPair), users.DefaultSeedUsers())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
