package applicator

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TarasYkv/shop-mirror-daemon/app/config"
	"github.com/TarasYkv/shop-mirror-daemon/app/controller"
	"github.com/TarasYkv/shop-mirror-daemon/app/db"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/TarasYkv/shop-mirror-daemon/app/rest"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"go.uber.org/zap"
)

type App struct {
	logger *zap.SugaredLogger
	config *config.Config
}

func NewApp(logger *zap.SugaredLogger, config *config.Config) *App {
	return &App{
		logger: logger,
		config: config,
	}
}

func (a *App) Run() {
	var cfg = a.config
	var l = a.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbConnections, err := db.NewConnection(cfg.DBPath)
	if err != nil {
		l.Fatalf("could not connect to database %v", err)
	}
	defer func() {
		if errDb := dbConnections.Close(); errDb != nil {
			l.Errorf("could not close database %v", errDb)
		}
	}()

	snapshotRepo := repo.NewSnapshotRepo(dbConnections)
	restoreRepo := repo.NewRestoreRepo(dbConnections)
	storageRepo := repo.NewStorageRepo(cfg.ExportRoot)

	client, err := shopify.NewClient(shopify.Config{
		Shop:        cfg.Shop,
		AccessToken: cfg.AccessToken,
		APIVersion:  cfg.APIVersion,
		Interval:    cfg.MinInterval,
		MaxAttempts: cfg.MaxAttempts,
		RetryBase:   cfg.RetryBase,
		Timeout:     cfg.RequestTimeout,
	}, l)
	if err != nil {
		l.Fatalf("could not create shop client %v", err)
	}
	fetcher := shopify.NewFetcher(client, shopify.FetcherOptions{
		PageSize: cfg.PageSize,
		MaxItems: cfg.MaxItems,
		MaxPages: cfg.MaxPages,
	}, l)

	var s3Client controller.S3ClientRepository
	if cfg.S3Enabled {
		s3Client, err = controller.NewS3Client(ctx, cfg.S3URL, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.BucketName, cfg.Region, cfg.S3SslVerify)
		if err != nil {
			l.Fatalf("could not connect to s3 client %v", err)
		}
	}

	exporter, err := controller.NewExporter(snapshotRepo, storageRepo, s3Client, cfg.EvictionPolicy, l)
	if err != nil {
		l.Fatalf("could not create exporter %v", err)
	}

	executor := controller.NewExecutor(cfg.HookCmd, cfg.HookTimeout, l)

	mirrorDaemon := controller.NewMirrorDaemon(snapshotRepo, restoreRepo, storageRepo, fetcher, exporter, s3Client,
		executor, cfg.Shop, cfg.ExportAfterBackup, l)

	endpointHandler := rest.NewEndpointHandler(mirrorDaemon, l)

	router := rest.NewRouter()

	server, err := rest.NewServer(cfg.Port, cfg.ShutdownTimeout, router, l, endpointHandler)
	if err != nil {
		l.Fatalf("failed to create server err: %v", err)
	}

	server.Run()
	defer func() {
		if err := server.Stop(); err != nil {
			l.Errorf("failed close server err: %v", err)
		}
		l.Info("server closed, waiting for the running job")
		mirrorDaemon.Wait()
	}()

	a.gracefulShutdown(cancel)
}

func (a *App) gracefulShutdown(cancel context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch
	signal.Stop(ch)
	cancel()
}
