// Command product runs the product catalog service behind the gateway.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eco2-team/backend/domains/platform-authz/internal/config"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/product"
	"github.com/eco2-team/backend/domains/platform-authz/internal/server"
	"github.com/eco2-team/backend/domains/platform-authz/internal/tracing"
)

func main() {
	logger := logging.New(logging.DefaultConfig(constants.ProductService))
	cfg := config.Load()

	tp, err := tracing.Init(context.Background(), tracing.DefaultConfig(constants.ProductService))
	if err != nil {
		logger.Warn("Tracing disabled", constants.ECSFieldErrorMessage, err.Error())
	}
	defer tp.Shutdown(context.Background())

	catalog := product.NewCatalog(product.Seed(time.Now().UTC()))
	logger.Info("Product catalog loaded", "count", catalog.Len())
	handler := product.NewHandler(catalog, logger)
	srv := server.NewHTTPServer(cfg.ProductHTTPPort, handler.Router())

	go func() {
		logger.Info("Starting product service", "port", cfg.ProductHTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", constants.ECSFieldErrorMessage, err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown", constants.ECSFieldErrorMessage, err.Error())
	}
	logger.Info("Server stopped")
}
