package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jayjaytrn/refund-desk/config"
	"github.com/jayjaytrn/refund-desk/internal/allotment"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/internal/handlers"
	"github.com/jayjaytrn/refund-desk/internal/lifecycle"
	"github.com/jayjaytrn/refund-desk/internal/middleware"
	"github.com/jayjaytrn/refund-desk/internal/ocr"
	"github.com/jayjaytrn/refund-desk/internal/refund"
	"github.com/jayjaytrn/refund-desk/internal/storage"
	"github.com/jayjaytrn/refund-desk/internal/verification"
	"github.com/jayjaytrn/refund-desk/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logging.GetSugaredLogger()
	defer logger.Sync()

	cfg := config.GetConfig()

	database, err := db.NewManager(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer database.Close()

	engine, err := ocr.New(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}

	files := storage.NewLocal(cfg.UploadDir, cfg.UploadBaseURL)

	h := &handlers.Handler{
		Database:  database,
		Config:    cfg,
		Logger:    logger,
		Verifier:  verification.NewOrchestrator(database, engine, cfg.ScratchDir, cfg.OCRRequestTimeout, logger),
		Allotter:  allotment.NewCoordinator(database, cfg.AllotmentTimeout, logger),
		Lifecycle: lifecycle.NewService(database, logger),
		Refunds:   refund.NewWorkflow(database, logger),
		Storage:   files,
	}

	r := initRouter(h, middleware.NewLimiter(cfg.VerifyRatePerMinute))
	r.Handle(cfg.UploadBaseURL+"/*", files.Handler())

	srv := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infow("starting server", "address", cfg.RunAddress, "ocrEngine", cfg.OCREngine)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
}

func initRouter(h *handlers.Handler, limiter *middleware.Limiter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer)

	authed := middleware.ValidateAuth(h.Config.JWTSecret)

	// Conveyor runs the last middleware first, so bodies are inflated before anything reads them.
	public := func(fn http.HandlerFunc, mws ...middleware.Middleware) http.Handler {
		mws = append(mws, middleware.WriteWithCompression, middleware.ReadWithCompression)
		return middleware.Conveyor(fn, h.Logger, mws...)
	}
	user := func(fn http.HandlerFunc, mws ...middleware.Middleware) http.Handler {
		return public(fn, append(mws, authed)...)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return public(fn, middleware.RequireAdmin, authed)
	}

	r.Post(`/api/user/register`, public(h.Register, middleware.ValidateCredentials).ServeHTTP)
	r.Post(`/api/user/login`, public(h.Login, middleware.ValidateCredentials).ServeHTTP)

	r.Get(`/api/user/orders`, user(h.UserOrders).ServeHTTP)
	r.Post(`/api/user/orders/{id}/place`, user(h.PlaceOrder).ServeHTTP)
	r.Post(`/api/user/uploads`, user(h.Upload).ServeHTTP)

	r.Post(`/api/refunds/verify-screenshot`, user(h.VerifyScreenshot, middleware.Throttle(limiter)).ServeHTTP)
	r.Post(`/api/refunds/submit`, user(h.SubmitRefund).ServeHTTP)
	r.Get(`/api/refunds`, user(h.UserRefunds).ServeHTTP)

	r.Post(`/api/admin/orders`, admin(h.ImportOrder).ServeHTTP)
	r.Post(`/api/admin/orders/bulk-allot`, admin(h.BulkAllot).ServeHTTP)
	r.Post(`/api/admin/orders/{id}/allot`, admin(h.AllotOrder).ServeHTTP)
	r.Post(`/api/admin/orders/{id}/confirm`, admin(h.ConfirmOrder).ServeHTTP)
	r.Get(`/api/admin/users/{id}/payment-history`, admin(h.PaymentHistory).ServeHTTP)

	// dashboards expose every assignee's orders
	r.Get(`/api/brands`, admin(h.Brands).ServeHTTP)
	r.Get(`/api/brands/{brand}/dashboard`, admin(h.BrandDashboard).ServeHTTP)

	r.Get(`/api/admin/refunds`, admin(h.AllRefunds).ServeHTTP)
	r.Put(`/api/admin/refunds/{id}`, admin(h.UpdateRefund).ServeHTTP)
	r.Post(`/api/admin/refunds/{id}/approve`, admin(h.ApproveRefund).ServeHTTP)
	r.Post(`/api/admin/refunds/{id}/reject`, admin(h.RejectRefund).ServeHTTP)

	return r
}
