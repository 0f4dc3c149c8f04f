package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/maintops/go-maint-auth/audit"
	"github.com/maintops/go-maint-auth/credential"
	"github.com/maintops/go-maint-auth/doccipher"
	"github.com/maintops/go-maint-auth/identity"
	"github.com/maintops/go-maint-auth/identity/repofake"
	"github.com/maintops/go-maint-auth/internal/config"
	"github.com/maintops/go-maint-auth/internal/obs"
	"github.com/maintops/go-maint-auth/lockout"
	"github.com/maintops/go-maint-auth/server"
	"github.com/maintops/go-maint-auth/session"
	"github.com/maintops/go-maint-auth/token"
	"github.com/maintops/go-maint-auth/token/refresh"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	for {
		if err := run(logger); err != nil {
			logger.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	obs.Init()

	signer, err := buildSigner(c)
	if err != nil {
		return errors.Wrap(err, "run buildSigner")
	}

	issuer := token.NewIssuer(signer, c.GetIssuer(),
		token.WithAccessTokenTTL(c.GetAccessTokenTTL()),
		token.WithAudience(c.GetAudience()),
	)

	identities, refreshStore, cleanup, err := buildStores(c, logger)
	if err != nil {
		return errors.Wrap(err, "run buildStores")
	}
	defer cleanup()

	auditSink := audit.MultiSink{audit.NewZerologSink(logger), obs.NewMetricsSink()}

	guard := lockout.NewGuard(buildLockoutStore(c, logger),
		lockout.WithThreshold(c.GetLockoutThreshold()),
		lockout.WithWindow(c.GetLockoutWindow()),
		lockout.WithLockoutDurations(c.GetLockoutBase(), c.GetLockoutMax()),
		lockout.WithAuditSink(auditSink),
	)

	refreshManager := refresh.NewManager(refreshStore, refresh.WithTTL(c.GetRefreshTokenTTL()))

	// The document cipher ring is validated at startup so a malformed key
	// fails the deploy instead of the first document read.
	if keys := c.GetEncryptionKeys(); len(keys) > 0 {
		ring, err := doccipher.ParseKeyRing(keys)
		if err != nil {
			return errors.Wrap(err, "run ParseKeyRing")
		}
		cipher, err := doccipher.New(ring)
		if err != nil {
			return errors.Wrap(err, "run doccipher.New")
		}
		logger.Info().Int("keys", cipher.KeyCount()).Msg("document cipher ready")
	}

	policy := credential.DefaultPolicy()
	policy.MinLength = c.GetMinPasswordLength()

	controller, err := session.NewController(session.Deps{
		Identities: identities,
		Guard:      guard,
		Issuer:     issuer,
		Refresh:    refreshManager,
		Audit:      auditSink,
	}, session.WithPolicy(policy), session.WithLogger(logger))
	if err != nil {
		return errors.Wrap(err, "run NewController")
	}

	srv, err := server.New(c, controller, identities, logger)
	if err != nil {
		return errors.Wrap(err, "run server.New")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: obs.Instrument(srv)}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildSigner(c config.Config) (token.Signer, error) {
	switch c.GetSignerType() {
	case config.SignerTypeRS256:
		keyPair, err := token.LoadKeyPairFromPEM("primary", c.GetSigningKeyPEM())
		if err != nil {
			return nil, errors.Wrap(err, "buildSigner LoadKeyPairFromPEM")
		}
		return token.NewKeyPairSigner(keyPair), nil
	case config.SignerTypeHMAC:
		secret := c.GetSigningSecret()
		if secret == "" {
			return nil, errors.New("buildSigner TOKEN_SIGNING_SECRET is required for HS256")
		}
		return token.NewHMACSigner(secret), nil
	default:
		return nil, errors.Errorf("buildSigner unknown signer type %q", c.GetSignerType())
	}
}

// buildStores opens Postgres when configured and falls back to the
// in-memory stores for development. The fake identity repo holds no seed
// data, so without a database only SSO-free endpoints that need no
// identity will respond usefully.
func buildStores(c config.Config, logger zerolog.Logger) (identity.Repo, refresh.Store, func(), error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory stores")
		return fakeidentityrepo.NewFakeIdentityRepo(), refresh.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "buildStores sql.Open")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, errors.Wrap(err, "buildStores PingContext")
	}

	refreshStore := refresh.NewPostgresStore(db)
	if err := refreshStore.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, errors.Wrap(err, "buildStores EnsureSchema")
	}

	return identity.NewPostgresRepo(db), refreshStore, func() { _ = db.Close() }, nil
}

func buildLockoutStore(c config.Config, logger zerolog.Logger) lockout.Store {
	addr := c.GetRedisAddr()
	if addr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, lockout state is per-instance")
		return lockout.NewInMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: c.GetRedisPassword(),
	})
	return lockout.NewRedisStore(client)
}

func listenAndServe(httpServer *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
