package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"almoxarife/internal/commons"
	"almoxarife/internal/notification"
	ordercontroller "almoxarife/internal/order/controller"
	"almoxarife/internal/product"
	"almoxarife/internal/report"
)

type Controllers struct {
	Products      *product.Controller
	Orders        *ordercontroller.OrderController
	Notifications *notification.Controller
	Reports       *report.Controller
}

func NewRouter(c Controllers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		commons.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", c.Products.HandleList)
		r.Post("/", c.Products.HandleRegister)
		r.Post("/search", c.Products.HandleSearchProducts)
		r.Get("/{productId}", c.Products.HandleGet)
		r.Delete("/{productId}", c.Products.HandleRemove)
		r.Get("/{productId}/movements", c.Products.HandleMovements)
		r.Get("/{productId}/movements.xlsx", c.Products.HandleMovementsXLSX)
	})

	r.Route("/orders/{kind}", func(r chi.Router) {
		r.Get("/", c.Orders.ListOrders)
		r.Post("/", c.Orders.CreateOrder)
		r.Get("/{orderId}", c.Orders.GetOrder)
		r.Patch("/{orderId}/status", c.Orders.SetStatus)
		r.Post("/{orderId}/cancel", c.Orders.Cancel)
	})

	r.Get("/notifications", c.Notifications.HandleFeed)
	r.Get("/notifications/unread", c.Notifications.HandleUnreadCount)
	r.Post("/notifications/read", c.Notifications.HandleMarkAllRead)

	r.Get("/reports/dashboard", c.Reports.HandleDashboard)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
				return
			}
			logger.Info("request handled", fields...)
		})
	}
}
