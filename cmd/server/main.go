package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"github.com/sabridemirel/arayanibul-sub003/auth"
	"github.com/sabridemirel/arayanibul-sub003/domain"
	"github.com/sabridemirel/arayanibul-sub003/federation"
	"github.com/sabridemirel/arayanibul-sub003/gateway"
	"github.com/sabridemirel/arayanibul-sub003/internal"
	"github.com/sabridemirel/arayanibul-sub003/moderation"
	"github.com/sabridemirel/arayanibul-sub003/repositories"
	"github.com/sabridemirel/arayanibul-sub003/runtime"
	"github.com/sabridemirel/arayanibul-sub003/runtime/workers"
	"github.com/sabridemirel/arayanibul-sub003/services"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanups always execute.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.LoggerFromLevel(config.LogLevel)

	// The signing secret is the only startup-fatal dependency: without it
	// no session token can ever be trusted.
	issuer, err := auth.NewTokenIssuer(config.AuthTokenSecret, config.AuthTokenDuration, config.TokenIssuerName)
	if err != nil {
		return exitConfig, err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are
		// flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Identity layer
	accountRepository := repositories.NewAccountRepository(db)
	verifiers := federation.VerifierSet{
		domain.ProviderGoogle:   federation.NewGoogleVerifier(config.ProviderTimeout),
		domain.ProviderFacebook: federation.NewFacebookVerifier(config.ProviderTimeout),
	}
	identityService := services.NewIdentityService(accountRepository, verifiers, issuer, logger)

	// 4. Realtime layer
	registry := runtime.NewRegistry(logger)
	presence := runtime.NewPresenceTracker(registry)

	var moderator *moderation.Moderator
	if words := config.ForbiddenWordList(); len(words) > 0 {
		replacement, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return exitConfig, err
		}
		moderator, err = moderation.NewModerator(words, replacement)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation dictionary: %w", err)
		}
	}
	router := runtime.NewConversationRouter(registry, moderator, logger)

	// 5. Context, signals & background workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(workers.NewBadgerGCWorker(db, logger, config.BadgerGCInterval))
	go supervisor.Run(ctx)

	// 6. HTTP & websocket gateway
	gw := gateway.New(identityService, issuer, registry, presence, router, config.SendBufferSize, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: gw.Routes(),
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gateway...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Gateway listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return exitRuntime, err
	}

	supervisor.Stop()
	return exitOK, nil
}
