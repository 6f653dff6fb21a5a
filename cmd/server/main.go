package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"student-api/internal/config"
	apphttp "student-api/internal/http"
	"student-api/internal/repository"
	"student-api/internal/repository/mongo"
	"student-api/internal/repository/sqlite"
	"student-api/internal/service"
	"student-api/internal/storage"
	"student-api/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	credRepo, studentRepo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	if err := credRepo.Init(ctx); err != nil {
		logger.Fatalf("init credential repository: %v", err)
	}
	if err := studentRepo.Init(ctx); err != nil {
		logger.Fatalf("init student repository: %v", err)
	}

	tokens, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}
	authService, err := service.NewAuthService(credRepo, tokens, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatalf("setup auth service: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	studentService := service.NewStudentService(studentRepo, storageSvc, service.ExportOptions{
		Bucket:    cfg.Export.Bucket,
		KeyPrefix: cfg.Export.Prefix,
		URLExpiry: cfg.Export.URLTTL,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(authService, studentService, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// openStore connects the backend named by the store uri and returns its
// repositories together with a function releasing the connection.
func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.CredentialRepository, repository.StudentRepository, func(), error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, nil, nil, err
	}

	switch backend {
	case config.BackendMongo:
		store, err := mongo.Connect(ctx, cfg.Store.URI, cfg.Store.Database, cfg.Store.Timeout)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using mongo database %s", cfg.Store.Database)
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Warnf("close mongo: %v", err)
			}
		}
		return store.Credentials(cfg.Store.UserCollection), store.Students(cfg.Store.StudentCollection), closeFn, nil

	case config.BackendSQLite:
		path, err := sqlite.PathFromURI(cfg.Store.URI)
		if err != nil {
			return nil, nil, nil, err
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		creds, err := sqlite.NewCredentialRepository(db, cfg.Store.UserCollection)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		students, err := sqlite.NewStudentRepository(db, cfg.Store.StudentCollection)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", path)
		return creds, students, func() { db.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported backend %q", backend)
	}
}

// buildStorage returns nil when no export bucket is configured.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Export.Bucket == "" {
		logger.Info("export bucket not configured, snapshot export disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Export.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Export.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Export.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("exporting snapshots to s3 bucket %s (region %s)", cfg.Export.Bucket, cfg.Export.Region)
	return storage.NewS3Service(client), nil
}
