package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazaar-dashboard/config"
	"bazaar-dashboard/internal/delivery/http/middleware"
	v1 "bazaar-dashboard/internal/delivery/http/v1"
	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/infrastructure/cache"
	"bazaar-dashboard/internal/infrastructure/clientstate"
	pgrepo "bazaar-dashboard/internal/repository/pg"
	"bazaar-dashboard/internal/repository/rest"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/logger"
	"bazaar-dashboard/pkg/storage"
	"bazaar-dashboard/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx := context.Background()

	// Database is optional: it backs transition history and the postgres state backend.
	var (
		pgxPool  *pgxpool.Pool
		recorder domain.TransitionRecorder
	)
	if cfg.DBUrl != "" {
		var err error
		pgxPool, err = pgrepo.NewPgxPool(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pgxPool.Close()
		if err := pgrepo.Migrate(ctx, pgxPool); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		recorder = pgrepo.NewHistoryRepository(pgxPool, pgrepo.NewTransactionManager(pgxPool))
		log.Info().Msg("Successfully connected to PostgreSQL; transition history enabled")
	}

	stateBackend, closeState := newStateBackend(ctx, cfg, pgxPool, log)
	defer closeState()

	// Initialize Cache (In-Memory)
	memCache := cache.NewMemoryCache(5*time.Minute, 10*time.Minute)

	// Upstream marketplace API
	client := rest.NewClient(cfg.UpstreamAPIURL, cfg.UpstreamTimeout, cfg.UpstreamRPS, int(cfg.UpstreamRPS)+1)
	orderRepo := rest.NewOrderRepository(client)
	withdrawalRepo := rest.NewWithdrawalRepository(client)
	sellerRepo := rest.NewSellerRepository(client)
	productRepo := rest.NewProductRepository(client)
	returnRepo := rest.NewReturnRepository(client)

	// --- Modules Initialization ---

	orderUC := usecase.NewOrderUsecase(orderRepo, recorder, cfg.ReconcileTimeout)
	withdrawalUC := usecase.NewWithdrawalUsecase(withdrawalRepo, recorder, memCache, cfg.CacheSummaryTTL, cfg.ReconcileTimeout)
	moderationUC := usecase.NewModerationUsecase(sellerRepo, productRepo, recorder, cfg.ReconcileTimeout)
	returnUC := usecase.NewReturnUsecase(returnRepo, orderUC, recorder, cfg.ReturnWindowDays, cfg.ReconcileTimeout)
	statsUC := usecase.NewStatsUsecase(orderUC, withdrawalUC, moderationUC, returnUC)
	stateUC := usecase.NewClientStateUsecase(stateBackend)

	// A dead upstream session invalidates everything persisted for that user.
	client.OnUnauthorized(func(ctx context.Context, userID string) {
		if err := stateUC.Clear(context.WithoutCancel(ctx), userID); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to clear client state")
		}
	})

	orderHandler := v1.NewOrderHandler(orderUC)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)
	withdrawalHandler := v1.NewWithdrawalHandler(withdrawalUC)
	moderationHandler := v1.NewModerationHandler(moderationUC)
	returnHandler := v1.NewReturnHandler(returnUC)
	statsHandler := v1.NewAdminStatsHandler(statsUC)
	configHandler := v1.NewConfigHandler(memCache)
	stateHandler := v1.NewClientStateHandler(stateUC)

	// Set up Router
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(h)
	}
	sellerOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.SellerMiddleware(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}

	// Config (Public)
	mux.HandleFunc("GET /api/v1/config/enums", configHandler.GetEnums)

	// Customer
	mux.Handle("GET /api/v1/orders/my", authed(orderHandler.GetMyOrders))
	mux.Handle("PUT /api/v1/orders/{id}/request-cancel", authed(orderHandler.RequestCancel))
	mux.Handle("GET /api/v1/orders/{id}/return-eligibility", authed(returnHandler.Eligibility))
	mux.Handle("GET /api/v1/returns/my", authed(returnHandler.GetMine))
	mux.Handle("POST /api/v1/returns", authed(returnHandler.Create))

	// Client state
	mux.Handle("GET /api/v1/cart", authed(stateHandler.GetCart))
	mux.Handle("PUT /api/v1/cart", authed(stateHandler.SaveCart))
	mux.Handle("DELETE /api/v1/cart", authed(stateHandler.ClearCart))
	mux.Handle("GET /api/v1/user/addresses", authed(stateHandler.GetAddresses))
	mux.Handle("PUT /api/v1/user/addresses", authed(stateHandler.SaveAddresses))

	// Seller
	mux.Handle("GET /api/v1/seller/orders", sellerOnly(orderHandler.GetSellerOrders))
	mux.Handle("PUT /api/v1/orders/{id}/status", sellerOnly(orderHandler.UpdateStatus))
	mux.Handle("POST /api/v1/orders/{id}/shipment", sellerOnly(orderHandler.CreateShipment))
	mux.Handle("DELETE /api/v1/orders/{id}/shipment", sellerOnly(orderHandler.CancelShipment))
	mux.Handle("GET /api/v1/withdrawals/my", sellerOnly(withdrawalHandler.GetMine))
	mux.Handle("POST /api/v1/withdrawals/request", sellerOnly(withdrawalHandler.Request))
	mux.Handle("DELETE /api/v1/withdrawals/{id}", sellerOnly(withdrawalHandler.DeleteMine))
	mux.Handle("GET /api/v1/seller/returns", sellerOnly(returnHandler.SellerList))
	mux.Handle("PUT /api/v1/seller/returns/{id}/reverse-pickup", sellerOnly(returnHandler.ReversePickup))
	mux.Handle("GET /api/v1/seller/stats/withdrawals", sellerOnly(statsHandler.GetMyWithdrawalTrend))

	// Admin Orders
	mux.Handle("GET /api/v1/admin/orders", adminOnly(adminOrderHandler.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/{id}", adminOnly(adminOrderHandler.GetOrder))
	mux.Handle("PUT /api/v1/admin/orders/{id}/approve-cancel", adminOnly(adminOrderHandler.ApproveCancel))
	mux.Handle("PUT /api/v1/admin/orders/{id}/refund", adminOnly(adminOrderHandler.RefundOrder))

	// Admin Withdrawals
	mux.Handle("GET /api/v1/admin/withdrawals", adminOnly(withdrawalHandler.AdminList))
	mux.Handle("GET /api/v1/admin/withdrawals/summary", adminOnly(withdrawalHandler.AdminSummary))
	mux.Handle("PUT /api/v1/admin/withdrawals/{id}/status", adminOnly(withdrawalHandler.AdminUpdateStatus))
	mux.Handle("DELETE /api/v1/admin/withdrawals/{id}", adminOnly(withdrawalHandler.AdminDelete))

	// Admin Moderation
	mux.Handle("GET /api/v1/admin/sellers", adminOnly(moderationHandler.ListSellers))
	mux.Handle("PUT /api/v1/admin/sellers/{id}/{action}", adminOnly(moderationHandler.ModerateSeller))
	mux.Handle("GET /api/v1/admin/products", adminOnly(moderationHandler.ListProducts))
	mux.Handle("POST /api/v1/admin/products/bulk-approve", adminOnly(moderationHandler.BulkApprove))
	mux.Handle("POST /api/v1/admin/products/bulk-reject", adminOnly(moderationHandler.BulkReject))
	mux.Handle("DELETE /api/v1/admin/products/{id}", adminOnly(moderationHandler.DeleteProduct))

	// Admin Returns
	mux.Handle("GET /api/v1/admin/returns", adminOnly(returnHandler.AdminList))
	mux.Handle("PUT /api/v1/admin/returns/{id}/approve", adminOnly(returnHandler.Approve))
	mux.Handle("PUT /api/v1/admin/returns/{id}/reject", adminOnly(returnHandler.Reject))

	// Admin Stats Routes (Analytics)
	mux.Handle("GET /api/v1/admin/stats/overview", adminOnly(statsHandler.GetOverview))
	mux.Handle("GET /api/v1/admin/stats/revenue", adminOnly(statsHandler.GetRevenue))
	mux.Handle("GET /api/v1/admin/stats/products/top", adminOnly(statsHandler.GetTopProducts))
	mux.Handle("GET /api/v1/admin/stats/withdrawals", adminOnly(statsHandler.GetWithdrawalTrend))
	mux.Handle("GET /api/v1/admin/stats/withdrawals/summary", adminOnly(statsHandler.GetWithdrawalSummary))

	if recorder != nil {
		historyHandler := v1.NewHistoryHandler(recorder)
		mux.Handle("GET /api/v1/admin/history/{entity}/{id}", adminOnly(historyHandler.GetHistory))
	}

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "stateBackend": cfg.ClientStateBackend}
		if pgxPool != nil {
			status["db"] = "connected"
			if err := pgxPool.Ping(r.Context()); err != nil {
				status["db"] = "unreachable"
			}
		}
		utils.WriteJSON(w, http.StatusOK, status)
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	addr := fmt.Sprintf(":%s", cfg.Port)

	rateLimiter := middleware.NewRateLimiter(
		ctx,
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	// CORS, Request Logger, Rate Limit, Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = rateLimiter.Middleware()(handler)
	handler = middleware.RequestLogger(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart("bazaar-dashboard", "v1", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	// In-flight reconciliations run detached with their own timeout; give them that long.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ReconcileTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop("bazaar-dashboard")
}

// newStateBackend builds the configured client-state store and its closer.
func newStateBackend(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *zerolog.Logger) (domain.StateBackend, func()) {
	noop := func() {}

	switch cfg.ClientStateBackend {
	case config.StateBackendPostgres:
		log.Info().Msg("Client state stored in PostgreSQL")
		return pgrepo.NewStateRepository(pool), noop

	case config.StateBackendRedis:
		backend := clientstate.NewRedisBackend(clientstate.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := backend.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Client state stored in Redis")
		return backend, func() { _ = backend.Close() }

	case config.StateBackendR2:
		r2Storage, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			"client-state",
			10*time.Second,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		log.Info().Str("bucket", cfg.R2BucketName).Msg("Client state stored in R2")
		return clientstate.NewObjectBackend(r2Storage), noop
	}

	backend, err := clientstate.NewFileBackend(cfg.ClientStateDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ClientStateDir).Msg("Failed to prepare client state directory")
	}
	log.Info().Str("dir", cfg.ClientStateDir).Msg("Client state stored on disk")
	return backend, noop
}
