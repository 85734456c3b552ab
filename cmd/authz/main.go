// Command authz runs the platform authorization service: Envoy's ext_authz target over HTTP
// and gRPC, and /authz/me for the UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/eco2-team/backend/domains/platform-authz/internal/authz"
	"github.com/eco2-team/backend/domains/platform-authz/internal/cache"
	"github.com/eco2-team/backend/domains/platform-authz/internal/config"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/mq"
	"github.com/eco2-team/backend/domains/platform-authz/internal/resolver"
	"github.com/eco2-team/backend/domains/platform-authz/internal/roles"
	"github.com/eco2-team/backend/domains/platform-authz/internal/server"
	"github.com/eco2-team/backend/domains/platform-authz/internal/tracing"
)

func main() {
	logger := logging.New(logging.DefaultConfig(constants.ServiceName))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", constants.ECSFieldErrorMessage, err.Error())
		os.Exit(1)
	}

	tp, err := tracing.Init(context.Background(), tracing.DefaultConfig(constants.ServiceName))
	if err != nil {
		logger.Warn("Tracing disabled", constants.ECSFieldErrorMessage, err.Error())
	}
	defer tp.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), constants.InitTimeout)
	defer cancel()

	roleCache, err := cache.New(ctx, cfg.CacheOptions(), logger)
	if err != nil {
		logger.Error("Failed to create role cache", constants.ECSFieldErrorMessage, err.Error())
		os.Exit(1)
	}
	defer roleCache.Close()
	logger.Info("Role cache configured",
		"cache.backend", cfg.CacheBackend,
		"cache.ttl_sec", cfg.CacheTTLSec,
	)

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open role source", constants.ECSFieldErrorMessage, err.Error())
		os.Exit(1)
	}
	defer closeSource()
	logger.Info("Role source configured", "role_source", cfg.RoleSource)

	res, err := resolver.New(roleCache, source, logger)
	if err != nil {
		logger.Error("Failed to create resolver", constants.ECSFieldErrorMessage, err.Error())
		os.Exit(1)
	}
	svc, err := authz.NewService(res, logger)
	if err != nil {
		logger.Error("Failed to create authz service", constants.ECSFieldErrorMessage, err.Error())
		os.Exit(1)
	}

	if cfg.AMQPURL != "" && roleCache.Enabled() {
		consumer := mq.NewRoleEventConsumer(cfg.AMQPURL, roleCache, logger)
		consumer.Start()
		defer consumer.Stop()
		logger.Info("Role event consumer started")
	}

	opsServer := server.NewHTTPServer(cfg.MetricsPort, server.OpsHandler())
	go func() {
		logger.Info("Starting metrics server", "port", cfg.MetricsPort)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", constants.ECSFieldErrorMessage, err.Error())
		}
	}()

	httpHandler, err := server.NewHTTPHandler(svc, res, logger)
	if err != nil {
		logger.Error("Failed to create HTTP handler", constants.ECSFieldErrorMessage, err.Error())
		os.Exit(1)
	}
	apiServer := server.NewHTTPServer(cfg.HTTPPort, httpHandler.Router())
	go func() {
		logger.Info("Starting authz HTTP server", "port", cfg.HTTPPort)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", constants.ECSFieldErrorMessage, err.Error())
			os.Exit(1)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCPort > 0 {
		authServer, err := server.NewGRPCServer(svc)
		if err != nil {
			logger.Error("Failed to create gRPC server", constants.ECSFieldErrorMessage, err.Error())
			os.Exit(1)
		}

		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			logger.Error("Failed to listen", constants.ECSFieldErrorMessage, err.Error())
			os.Exit(1)
		}

		grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		authv3.RegisterAuthorizationServer(grpcServer, authServer)

		go func() {
			logger.Info("Starting ext_authz gRPC server", "port", cfg.GRPCPort)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", constants.ECSFieldErrorMessage, err.Error())
				os.Exit(1)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer shutdownCancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", constants.ECSFieldErrorMessage, err.Error())
	}
	_ = opsServer.Shutdown(shutdownCtx)
	logger.Info("Server stopped")
}

// openSource returns the configured role source and its cleanup function.
func openSource(ctx context.Context, cfg *config.Config) (roles.Source, func(), error) {
	if cfg.RoleSource == config.SourcePostgres {
		pg, err := roles.OpenPostgres(ctx, cfg.DatabaseURL, cfg.PostgresOptions())
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	}

	static, err := roles.NewStaticSource(roles.DefaultDirectory())
	if err != nil {
		return nil, nil, err
	}
	return static, func() {}, nil
}
