package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/homestead/internal/auth"
	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/debounce"
	"github.com/debemdeboas/homestead/internal/draft"
	"github.com/debemdeboas/homestead/internal/imaging"
	"github.com/debemdeboas/homestead/internal/kv"
	"github.com/debemdeboas/homestead/internal/listing"
	"github.com/debemdeboas/homestead/internal/logger"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/objectstore"
	"github.com/debemdeboas/homestead/internal/render"
	"github.com/debemdeboas/homestead/internal/repository"
	"github.com/debemdeboas/homestead/internal/routes"
	"github.com/debemdeboas/homestead/internal/sse"
	"github.com/debemdeboas/homestead/internal/user"
	"github.com/debemdeboas/homestead/internal/util/compression"
)

const redisKeyPrefix = "homestead:"

// app holds every long-lived component of the server.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	db        *db.SQLite
	redis     *redis.Client
	autosaver *draft.Autosaver
	clients   *sse.SSEClients
	provider  auth.AuthProvider
	uploads   string

	handler http.Handler
}

// setLoggers hands each package its component logger.
func setLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	kv.SetLogger(logger.Component(l, "kv"))
	draft.SetLogger(logger.Component(l, "draft"))
	imaging.SetLogger(logger.Component(l, "imaging"))
	objectstore.SetLogger(logger.Component(l, "objectstore"))
	repository.SetLogger(logger.Component(l, "repository"))
	listing.SetLogger(logger.Component(l, "listing"))
	render.SetLogger(logger.Component(l, "render"))
	sse.SetLogger(logger.Component(l, "sse"))
	auth.SetLogger(logger.Component(l, "auth"))
	user.SetLogger(logger.Component(l, "user"))
}

func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: l}

	a.db = db.NewSQLite(cfg.Storage.SQLitePath)
	if err := a.db.InitDB(); err != nil {
		return nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}

	store, err := a.newKVStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	forms := draft.NewForms(cfg.Drafts.QuickRetention, cfg.Drafts.FullRetention)
	a.autosaver = draft.NewAutosaver(draft.NewStore(store, forms), debounce.New(cfg.Drafts.DebounceDelay))

	uploader, err := a.newUploader(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.provider, err = a.newAuthProvider()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf(config.ErrCreateProviderFmt, err)
	}

	presets := make([]imaging.Preset, 0, len(cfg.Images.Presets))
	for _, p := range cfg.Images.Presets {
		presets = append(presets, imaging.Preset{Quality: p.Quality, MaxDimension: p.MaxDimension, MaxBytes: p.MaxBytes})
	}
	pipeline := imaging.NewPipeline(imaging.NewCompressor(presets).WithMaxPixels(cfg.Images.MaxPixels), uploader, cfg.Images.MaxUploadBytes, cfg.ObjectStore.KeyPrefix)
	a.clients = sse.NewSSEClients()

	service := listing.NewService(repository.NewDBListingRepository(a.db), a.autosaver)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routes.HealthPath, a.serveHealth)
	draft.NewHandler(a.autosaver, a.provider).Register(mux)
	imaging.NewHandler(pipeline, a.clients, a.provider, cfg.Images.FallbackToOriginal).Register(mux)
	listing.NewHandler(service, forms, a.provider).Register(mux)
	user.NewHandler(a.provider, a.directory()).Register(mux)
	mux.HandleFunc("POST "+routes.WebhookUser, a.provider.HandleWebhookUser)

	if p, ok := a.provider.(*auth.Ed25519AuthProvider); ok {
		auth.RegisterEd25519AuthRoutes(mux, p)
	}
	if a.uploads != "" {
		mux.Handle(routes.Uploads, http.StripPrefix(routes.Uploads, http.FileServer(http.Dir(a.uploads))))
	}

	a.handler = withLogger(l, cacheIt(secureHeaders(a.provider.WithHeaderAuthorization()(mux))))
	return a, nil
}

func (a *app) newKVStore(ctx context.Context) (kv.Store, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageMemory:
		return kv.NewMemoryStore(a.cfg.Storage.MemoryQuotaBytes), nil

	case config.StorageRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Storage.RedisAddr,
			Password: os.Getenv(config.EnvRedisPassword),
			DB:       a.cfg.Storage.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.Storage.RedisAddr, err)
		}
		return kv.NewRedisStore(a.redis, redisKeyPrefix), nil

	case config.StorageSQLite, "":
		return kv.NewSQLiteStore(a.db).WithCompressor(compression.ByName(a.cfg.Storage.Compression)), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.cfg.Storage.Backend)
	}
}

func (a *app) newUploader(ctx context.Context) (objectstore.Uploader, error) {
	oc := a.cfg.ObjectStore
	switch oc.Backend {
	case config.ObjectStoreS3:
		return objectstore.NewS3Uploader(ctx, objectstore.S3Options{
			AccessKeyID:     os.Getenv(config.EnvS3AccessKeyID),
			AccessKeySecret: os.Getenv(config.EnvS3SecretKey),
			Region:          oc.Region,
			Endpoint:        oc.Endpoint,
			Bucket:          oc.Bucket,
			PublicBaseURL:   oc.PublicBaseURL,
		})

	case config.ObjectStoreFS, "":
		a.uploads = oc.Dir
		return objectstore.NewFSUploader(oc.Dir, oc.PublicBaseURL), nil

	default:
		return nil, fmt.Errorf("unknown object store backend %q", oc.Backend)
	}
}

func (a *app) newAuthProvider() (auth.AuthProvider, error) {
	ac := a.cfg.Auth
	if !ac.Enabled {
		a.log.Warn().Str("user_id", ac.UserID).Msg("Authentication disabled, every request acts as the configured user")
		return auth.NewStaticAuthProvider(model.UserID(ac.UserID)), nil
	}

	switch ac.Type {
	case config.AuthClerk:
		provider := auth.NewClerkAuthProvider(os.Getenv(config.EnvClerkKey), a.db)
		provider.OnUserDeleted(a.discardDrafts)
		return provider, nil

	case config.AuthEd25519, "":
		return auth.NewEd25519AuthProvider(os.Getenv(config.EnvEd25519PublicKey), ac.HeaderName, model.UserID(ac.UserID))

	default:
		return nil, fmt.Errorf("unknown auth type %q", ac.Type)
	}
}

func (a *app) directory() user.Directory {
	local := user.NewDBDirectory(a.db)
	if _, ok := a.provider.(*auth.ClerkAuthProvider); ok {
		return user.NewClerkDirectory(local)
	}
	return local
}

// discardDrafts drops every draft owned by a deleted user.
func (a *app) discardDrafts(ctx context.Context, owner model.UserID) error {
	var errs []error
	for formType := range a.autosaver.Store().Forms() {
		errs = append(errs, a.autosaver.Discard(ctx, owner, formType))
	}
	return errors.Join(errs...)
}

func (a *app) serveHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.db.Get().PingContext(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if a.redis != nil {
		if err := a.redis.Ping(r.Context()).Err(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Close flushes pending drafts before releasing the stores they write to.
func (a *app) Close() {
	if a.autosaver != nil {
		a.autosaver.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close database")
	}
}
