package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/saasadmin/handler"
	billingmod "github.com/dmitrymomot/saasadmin/modules/billing"
	secretsmod "github.com/dmitrymomot/saasadmin/modules/secrets"
	"github.com/dmitrymomot/saasadmin/pkg/config"
	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/pkg/encryption"
	"github.com/dmitrymomot/saasadmin/pkg/httpserver"
	"github.com/dmitrymomot/saasadmin/pkg/locker"
	"github.com/dmitrymomot/saasadmin/pkg/logger"
	"github.com/dmitrymomot/saasadmin/pkg/mongo"
	"github.com/dmitrymomot/saasadmin/pkg/ratelimiter"
	"github.com/dmitrymomot/saasadmin/pkg/redis"
	"github.com/dmitrymomot/saasadmin/pkg/requestid"
	"github.com/dmitrymomot/saasadmin/pkg/session"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
	"github.com/dmitrymomot/saasadmin/svc/billing"
	"github.com/dmitrymomot/saasadmin/svc/secrets"
)

// appConfig holds the settings that belong to no single package.
type appConfig struct {
	DatastoreEnabled bool `env:"DATASTORE_ENABLED" envDefault:"true"`
}

func runServer(ctx context.Context) error {
	var (
		appCfg     appConfig
		logCfg     logger.Config
		httpCfg    httpserver.Config
		mongoCfg   mongo.Config
		redisCfg   redis.Config
		cipherCfg  encryption.Config
		billingCfg billing.Config
		sessionCfg session.Config
		limitCfg   ratelimiter.Config
	)
	if err := errors.Join(
		config.Load(&appCfg),
		config.Load(&logCfg),
		config.Load(&httpCfg),
		config.Load(&mongoCfg),
		config.Load(&redisCfg),
		config.Load(&cipherCfg),
		config.Load(&billingCfg),
		config.Load(&sessionCfg),
		config.Load(&limitCfg),
	); err != nil {
		return err
	}

	log := logger.NewFromConfig(logCfg, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		tenant.LoggerExtractor(),
	))
	logger.SetAsDefault(log)

	var cleanup []func(context.Context) error
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		for i := len(cleanup) - 1; i >= 0; i-- {
			if err := cleanup[i](shutdownCtx); err != nil {
				log.WarnContext(shutdownCtx, "cleanup failed", logger.Error(err))
			}
		}
	}()

	var checks []httpserver.Check

	driver, err := openDatastore(ctx, log, appCfg.DatastoreEnabled, mongoCfg, isDevelopment(logCfg.Env))
	if err != nil {
		return err
	}
	if driver.close != nil {
		cleanup = append(cleanup, driver.close)
		checks = append(checks, driver.check)
	}

	var (
		lock       locker.Locker = locker.NewLocal()
		limitStore ratelimiter.Store
	)
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func(context.Context) error { return client.Close() })
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
		lock = locker.NewRedis(client, locker.WithLogger(log))
		limitStore = ratelimiter.NewRedisStore(client)
	} else {
		mem := ratelimiter.NewMemoryStore()
		go mem.Cleanup(ctx, 5*time.Minute, time.Hour)
		limitStore = mem
	}
	limiter, err := ratelimiter.NewBucket(limitStore, limitCfg)
	if err != nil {
		return err
	}

	cipher, err := encryption.New(cipherCfg)
	if err != nil {
		return err
	}
	if !cipher.Available() {
		log.WarnContext(ctx, "secrets encryption key is not configured, secret writes and reads are disabled")
	}

	resolver, err := session.NewJWTResolver(sessionCfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	secretStore := secrets.NewStore(driver, cipher, secrets.WithLogger(log))
	if driver.Available() {
		if err := secretStore.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	deps := routerDeps{
		log:      log,
		gatherer: reg,
		resolver: resolver,
		checks:   checks,
		secrets:  secretsmod.New(secretStore, log).Handle(),
	}

	if billingCfg.StripeSecretKey == "" {
		log.WarnContext(ctx, "STRIPE_SECRET_KEY is not set, billing routes are disabled")
	} else {
		metrics := billing.NewMetrics(reg)
		customers := billing.NewCustomerStore(driver,
			billing.WithStoreLogger(log),
			billing.WithStoreMetrics(metrics),
		)
		if driver.Available() {
			if err := customers.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
		provider := billing.NewStripeProvider(
			billing.NewStripe(billingCfg.StripeSecretKey, nil),
			billingCfg.DefaultCurrency,
			log,
		)
		manager := billing.NewManager(provider, customers, billingCfg,
			billing.WithLogger(log),
			billing.WithLocker(lock),
			billing.WithMetrics(metrics),
		)
		deps.billing = billingmod.New(manager, log).Handle()
		deps.billingLimit = ratelimiter.Middleware(limiter, ratelimiter.TenantKey, log)
	}

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, newRouter(deps))
}

type routerDeps struct {
	log      *slog.Logger
	gatherer prometheus.Gatherer
	resolver session.Resolver
	checks   []httpserver.Check
	billing  http.Handler
	secrets  http.Handler

	// billingLimit throttles billing routes per tenant, since each one
	// calls the payment provider.
	billingLimit func(http.Handler) http.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(d.log, d.checks...))
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(d.resolver,
			session.WithLogger(d.log),
			session.WithErrorHandler(unauthorized),
		))
		if d.billing != nil {
			br := r
			if d.billingLimit != nil {
				br = r.With(d.billingLimit)
			}
			br.Mount("/billing", d.billing)
		}
		r.Mount("/secrets", d.secrets)
	})

	return r
}

func unauthorized(w http.ResponseWriter, r *http.Request, _ error) {
	_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
}

// datastore is the document store driver plus the resources behind it.
type datastore struct {
	docstore.Driver
	check httpserver.Check
	close func(context.Context) error
}

// openDatastore picks the driver. Without a MongoDB URL the store is
// disabled, except in development where an in-memory driver stands in.
func openDatastore(ctx context.Context, log *slog.Logger, enabled bool, cfg mongo.Config, dev bool) (*datastore, error) {
	switch {
	case !enabled:
		log.InfoContext(ctx, "datastore disabled by configuration")
		return &datastore{Driver: docstore.DisabledDriver{}}, nil
	case !cfg.Enabled() && dev:
		log.WarnContext(ctx, "MONGODB_URL is not set, using in-memory datastore")
		return &datastore{Driver: docstore.NewMemoryDriver()}, nil
	case !cfg.Enabled():
		log.WarnContext(ctx, "MONGODB_URL is not set, datastore disabled")
		return &datastore{Driver: docstore.DisabledDriver{}}, nil
	}

	client, err := mongo.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &datastore{
		Driver: docstore.NewMongoDriver(client.Database(cfg.Database)),
		check:  httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(client)},
		close:  client.Disconnect,
	}, nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}
