package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountcleanup "github.com/androidmontreal/rhok-server/internal/account/cleanup"
	accounthttp "github.com/androidmontreal/rhok-server/internal/account/http"
	accountrepo "github.com/androidmontreal/rhok-server/internal/account/repository"
	accountservice "github.com/androidmontreal/rhok-server/internal/account/service"
	"github.com/androidmontreal/rhok-server/internal/common/clock"
	"github.com/androidmontreal/rhok-server/internal/common/config"
	commoncrypto "github.com/androidmontreal/rhok-server/internal/common/crypto"
	"github.com/androidmontreal/rhok-server/internal/common/db"
	commonhttp "github.com/androidmontreal/rhok-server/internal/common/http"
	"github.com/androidmontreal/rhok-server/internal/common/httpmetrics"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	srv "github.com/androidmontreal/rhok-server/internal/common/server"
	sessionrepo "github.com/androidmontreal/rhok-server/internal/session/repository"
	sessionservice "github.com/androidmontreal/rhok-server/internal/session/service"
	userrepo "github.com/androidmontreal/rhok-server/internal/user/repository"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "accounts", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.LoadAccountsConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := db.RunMigrations(context.Background(), cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	userRepo := userrepo.NewPgRepository(pool)
	sessionRepo := sessionrepo.NewPgRepository(pool)
	resetTokenRepo := accountrepo.NewPgResetTokenRepository(pool)

	hasher := &commoncrypto.BcryptHasher{}
	idGenerator := commoncrypto.NewUUIDGenerator()
	keyGenerator := commoncrypto.NewRandomKeyGenerator()
	clk := clock.NewRealClock()

	sessionManager := sessionservice.NewManager(sessionRepo, keyGenerator, idGenerator, clk, log)
	authService := accountservice.NewAuthService(
		userRepo,
		sessionManager,
		resetTokenRepo,
		hasher,
		keyGenerator,
		idGenerator,
		clk,
		cfg.SessionTimeout,
		cfg.ResetTokenTTL,
		log,
	)
	userService := accountservice.NewUserService(
		userRepo,
		hasher,
		idGenerator,
		clk,
		cfg.UnconfirmedMaxAge,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go accountcleanup.StartResetTokenCleanup(ctx, resetTokenRepo, log)

	handler := accounthttp.NewHandler(authService, userService, cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	recovery := commonhttp.RecoveryMiddleware(log)
	finalHandler := recovery(httpmetrics.Wrap(mux))

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, finalHandler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("accounts service: stopping cleanup goroutine")
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "accounts", shutdownHooks)
}
