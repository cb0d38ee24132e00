package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-roster-api/api/swagger"
	"github.com/noah-isme/sma-roster-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-roster-api/internal/middleware"
	"github.com/noah-isme/sma-roster-api/internal/repository"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/config"
	"github.com/noah-isme/sma-roster-api/pkg/jobs"
	"github.com/noah-isme/sma-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-roster-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-roster-api/pkg/storage"
)

// @title SMA Roster API
// @version 1.0.0
// @description Student roster with an admin-defined field schema
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rawStore, closer, err := repository.OpenStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	var metrics *service.MetricsService
	var observer repository.StoreObserver
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
		observer = metrics
	}
	store := repository.NewInstrumentedStore(rawStore, observer)
	validate := validator.New()

	auth := service.NewAuthService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		validate,
		logr.Named("auth"),
		service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
			Admin: service.AdminAccount{
				Email:    cfg.Admin.Email,
				Password: cfg.Admin.Password,
				Name:     cfg.Admin.Name,
			},
		},
	)
	if err := auth.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	fields := service.NewFieldService(repository.NewFieldRepository(store), logr.Named("fields"), service.FieldServiceConfig{SeedFile: cfg.Fields.SeedFile})
	if _, err := fields.ListFields(ctx); err != nil {
		return fmt.Errorf("seed fields: %w", err)
	}
	students := service.NewStudentService(repository.NewStudentRepository(store), auth, fields, logr.Named("students"))
	forms := service.NewFormService(fields, students, service.NewFormEngine(cfg.Fields.FormApplyDefaults), logr.Named("forms"))
	if metrics != nil {
		auth.SetMetrics(metrics)
		forms.SetMetrics(metrics)
	}

	handlers := handler.Handlers{
		Auth:     handler.NewAuthHandler(auth),
		Fields:   handler.NewFieldHandler(fields, validate),
		Forms:    handler.NewFormHandler(forms, validate),
		Students: handler.NewStudentHandler(students, forms),
		Metrics:  handler.NewMetricsHandler(metrics, readiness(store)),
	}
	if cfg.Exports.Enabled {
		exports := service.NewExportService(fields, students, service.ExportConfig{Title: cfg.Exports.Title}, logr.Named("exports"), nil)
		handlers.Exports = handler.NewExportHandler(exports, validate)
	}
	if cfg.Attachments.Enabled {
		files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
		if err != nil {
			return err
		}
		attachments := service.NewAttachmentService(
			files,
			storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL),
			service.AttachmentConfig{
				APIPrefix:    cfg.APIPrefix,
				MaxFileSize:  cfg.Attachments.MaxFileSizeBytes,
				AllowedMIMEs: cfg.Attachments.AllowedMIMEs,
			},
			logr.Named("attachments"),
		)
		handlers.Attachments = handler.NewAttachmentHandler(attachments, validate)

		purge := jobs.NewQueue("attachment-purge", service.PurgeJob(attachments), jobs.QueueConfig{
			Workers:    cfg.Attachments.PurgeWorkers,
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		purge.Start(ctx)
		defer purge.Stop()
		students.SetAttachmentReleaser(service.NewAttachmentJanitor(purge, logr.Named("attachments")))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metrics != nil {
		r.Use(internalmiddleware.Metrics(metrics))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, auth, handlers)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readiness(store repository.KVStore) handler.ReadinessCheck {
	pinger, ok := store.(repository.Pinger)
	if !ok {
		return nil
	}
	return pinger.Ping
}
