package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodninja/config"
	"foodninja/controllers"
	"foodninja/database"
	"foodninja/lock"
	"foodninja/logger"
	"foodninja/middleware"
	"foodninja/models"
	"foodninja/payment"
	"foodninja/repository"
	"foodninja/repository/memory"
	"foodninja/routes"
	"foodninja/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type stores struct {
	users  services.UserStore
	foods  services.FoodStore
	carts  services.CartStore
	orders services.OrderStore
	ping   controllers.Pinger
	close  func(context.Context) error
}

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		l := logger.New(config.GetEnv("LOG_LEVEL", "info"))
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	locker, closeLocker := newLocker(cfg, log)
	defer closeLocker()

	materializer := services.NewOrderMaterializer(st.users, st.carts, st.foods, st.orders, locker, log)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, log)

	h := controllers.NewHandler(controllers.Deps{
		Cart:               services.NewCartService(st.carts, st.foods),
		Catalog:            services.NewCatalogService(st.foods),
		Payments:           services.NewPaymentService(gateway),
		Orders:             services.NewOrderService(st.orders, models.TransitionPolicy{AllowRollback: cfg.AllowRollback}),
		Webhooks:           payment.NewReceiver(cfg.StripeWebhookKey, materializer, log),
		RequestTimeout:     cfg.RequestTimeout,
		MaterializeTimeout: cfg.MaterializeTimeout,
	})

	if err := controllers.RegisterValidators(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}
	r.Use(middleware.RequestID(log), middleware.AccessLog(), middleware.Recovery())
	routes.RegisterRoutes(r, h, routes.Options{AdminToken: cfg.AdminToken, Health: st.ping})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.MaterializeTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		db := memory.NewDB()
		userID := memory.SeedDemo(db)
		log.Warn().Str("demo_user", userID.Hex()).Msg("using in-memory store; data is lost on exit")
		return &stores{
			users:  memory.NewUserStore(db),
			foods:  memory.NewFoodStore(db),
			carts:  memory.NewCartStore(db),
			orders: memory.NewOrderStore(db),
			close:  func(context.Context) error { return nil },
		}, nil
	}

	db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return nil, err
	}
	cols := database.InitCollections(db)
	if err := database.EnsureIndexes(ctx, cols); err != nil {
		return nil, err
	}
	log.Info().Str("db", cfg.DBName).Msg("connected to MongoDB")

	return &stores{
		users:  repository.NewUserRepository(cols.Users),
		foods:  repository.NewFoodRepository(cols.Foods),
		carts:  repository.NewCartRepository(cols.Users),
		orders: repository.NewOrderRepository(cols.Orders),
		ping:   func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
		close:  db.Client().Disconnect,
	}, nil
}

func newLocker(cfg *config.Config, log zerolog.Logger) (lock.Locker, func()) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR not set; order materialization locks are process-local")
		return lock.NewLocalLocker(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return lock.NewRedisLocker(client, cfg.LockTTL, log), func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis client")
		}
	}
}
