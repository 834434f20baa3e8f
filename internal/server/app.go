// Package server wires the room services, stores and transports together
// and runs them until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/logging"
	"github.com/dmitrijs2005/roomkeeper/internal/server/auth"
	"github.com/dmitrijs2005/roomkeeper/internal/server/config"
	"github.com/dmitrijs2005/roomkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/roomkeeper/internal/server/livekit"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/roomkeeper/internal/server/repositories/rooms"
	"github.com/dmitrijs2005/roomkeeper/internal/server/security"
	"github.com/dmitrijs2005/roomkeeper/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/roomkeeper/internal/server/grpc"
)

const (
	// attemptTTL bounds how long redis keeps a failed-attempt record.
	attemptTTL   = 24 * time.Hour
	masterKeyLen = 32
	dialTimeout  = 5 * time.Second
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	rooms   *rooms.FallbackRepository
	handler http.Handler
	health  *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	if err := app.openRoomStore(ctx); err != nil {
		return nil, err
	}

	master, err := app.masterKey(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	signer := app.signer(ctx)

	auditRepo := app.auditRepository()
	recorder := services.NewAuditRecorder(auditRepo, app.archiver(ctx), logger)

	opts := services.AccessOptions{
		Keys:           services.NewKeyManager(app.rooms, master, logger, nil),
		DefaultChannel: c.DefaultChannel,
		ServerURL:      c.LiveKitURL,
	}
	var spotlight *services.SpotlightService
	var hosts *services.HostAuthorizer
	if signer != nil {
		opts.Signer = signer
		spotlight = services.NewSpotlightService(livekit.NewRoomService(c.LiveKitURL, signer), signer, app.rooms, recorder, logger)
		hosts = services.NewHostAuthorizer(signer)
	} else {
		spotlight = services.NewSpotlightService(nil, nil, app.rooms, recorder, logger)
		hosts = services.NewHostAuthorizer(nil)
	}

	app.health = gs.NewHealthServer(c.GRPCAddr, logger)
	app.health.SetDegraded(app.rooms.Degraded())
	app.rooms.OnDegraded(func(error) { app.health.SetDegraded(true) })

	h := httpapi.NewHandler(httpapi.Services{
		Access:        services.NewAccessService(app.rooms, app.attemptStore(ctx), recorder, logger, opts),
		Rooms:         services.NewRoomService(app.rooms, recorder, logger, nil),
		Security:      services.NewSecurityService(app.rooms, recorder, logger, nil),
		Audit:         services.NewAuditService(auditRepo),
		Spotlight:     spotlight,
		Hosts:         hosts,
		StoreDegraded: app.rooms.Degraded,
	}, logger, c.TrustProxyHeaders)
	app.handler = h.Router()

	return app, nil
}

// openRoomStore builds the two-tier room store. A durable store that cannot
// be opened leaves the server running on the seeded memory store.
func (app *App) openRoomStore(ctx context.Context) error {
	memory := rooms.NewMemoryRepository(rooms.SeedRooms(time.Now())...)

	var primary rooms.Repository
	switch app.config.StorageDriver {
	case config.StorageMemory:
		app.rooms = rooms.NewFallbackRepository(memory, memory, app.logger)
		return nil
	case config.StorageFile:
		fr, err := rooms.NewFileRepository(app.config.DataDir)
		if err != nil {
			app.logger.Warn(ctx, "file store unavailable, serving rooms from memory", "error", err)
		} else {
			primary = fr
		}
	case config.StoragePostgres:
		db, err := app.openDB(ctx)
		if err != nil {
			app.logger.Warn(ctx, "database unavailable, serving rooms from memory", "error", err)
		} else {
			app.db = db
			primary = repomanager.NewPostgresRepositoryManager().Rooms(db)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", app.config.StorageDriver)
	}

	app.rooms = rooms.NewFallbackRepository(primary, memory, app.logger)
	return nil
}

func (app *App) openDB(ctx context.Context) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	db, err := repomanager.Open(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

func (app *App) auditRepository() auditlogs.Repository {
	if app.db != nil {
		return repomanager.NewPostgresRepositoryManager().AuditLogs(app.db, app.config.AuditLogCapacity, nil)
	}
	return auditlogs.NewMemoryRepository(app.config.AuditLogCapacity, nil)
}

func (app *App) attemptStore(ctx context.Context) security.AttemptStore {
	if app.config.RedisAddr == "" {
		return security.NewMemoryAttemptStore()
	}

	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		app.logger.Warn(ctx, "redis unavailable, rate limiting is per instance", "error", err)
		_ = client.Close()
		return security.NewMemoryAttemptStore()
	}

	app.redis = client
	return security.NewRedisAttemptStore(client, attemptTTL)
}

// archiver returns nil when archiving is off or S3 is unusable.
func (app *App) archiver(ctx context.Context) auditlogs.Archiver {
	if app.config.S3Bucket == "" {
		return nil
	}
	a, err := auditlogs.NewS3Archiver(ctx, auditlogs.S3Config{
		Bucket:       app.config.S3Bucket,
		Region:       app.config.S3Region,
		BaseEndpoint: app.config.S3BaseEndpoint,
		AccessKey:    app.config.S3RootUser,
		SecretKey:    app.config.S3RootPassword,
	})
	if err != nil {
		app.logger.Warn(ctx, "audit archive disabled", "error", err)
		return nil
	}
	return a
}

func (app *App) masterKey(ctx context.Context) ([]byte, error) {
	if app.config.EncryptionKey == "" {
		app.logger.Warn(ctx, "no encryption key configured, room keys will not survive a restart")
		return common.GenerateRandByteArray(masterKeyLen), nil
	}
	key, err := hex.DecodeString(app.config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if len(key) != masterKeyLen {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", masterKeyLen, len(key))
	}
	return key, nil
}

// signer returns nil when the media server credentials are missing; joins
// then fail as misconfigured instead of the server refusing to start.
func (app *App) signer(ctx context.Context) *auth.Signer {
	s, err := auth.NewSigner(app.config.LiveKitAPIKey, app.config.LiveKitAPISecret, app.config.JoinTokenValidityDuration)
	if err != nil {
		app.logger.Error(ctx, "join credentials cannot be issued", "error", err)
		return nil
	}
	return s
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}

// NewLogger is the process logger: JSON lines to stdout at the configured
// level.
func NewLogger(c *config.Config) logging.Logger {
	level, ok := logging.ParseLevel(c.LogLevel)
	l := logging.NewJSONLogger(os.Stdout, level)
	if !ok {
		l.Warn(context.Background(), "unknown log level, using info", "log_level", c.LogLevel)
	}
	return l
}
