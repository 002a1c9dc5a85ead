// Package bootstrap builds the upload controller and its infrastructure from
// configuration. Both consoles start here.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/auditor-console/internal/application"
	"github.com/bryanwahyu/auditor-console/internal/application/upload"
	"github.com/bryanwahyu/auditor-console/internal/config"
	"github.com/bryanwahyu/auditor-console/internal/domain/submissions"
	"github.com/bryanwahyu/auditor-console/internal/infra/analysisapi"
	"github.com/bryanwahyu/auditor-console/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/auditor-console/internal/infra/db/mysql"
	"github.com/bryanwahyu/auditor-console/internal/infra/db/postgres"
	minioStore "github.com/bryanwahyu/auditor-console/internal/infra/storage"
	"github.com/bryanwahyu/auditor-console/internal/markup"
	"github.com/bryanwahyu/auditor-console/internal/metrics"
	"github.com/bryanwahyu/auditor-console/internal/middleware"
	"github.com/bryanwahyu/auditor-console/internal/render"
)

// App is everything a console needs.
type App struct {
	Controller *upload.Controller
	Renderer   render.Renderer
	Analysis   *analysisapi.Client
	Journal    submissions.Repository
	Health     map[string]middleware.HealthChecker

	db *sql.DB
}

// Close releases the database, if any.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

type schemaRepo interface {
	submissions.Repository
	EnsureSchema(ctx context.Context) error
}

// Build wires the controller. extra observers run after the metrics one.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...upload.Observer) (*App, error) {
	policy, err := markup.ParsePolicy(cfg.Report.Trust)
	if err != nil {
		return nil, err
	}

	client := analysisapi.NewClient(analysisapi.Config{
		BaseURL: cfg.Analysis.APIURL,
		Timeout: cfg.Analysis.Timeout,
		Logger:  logger,
	})

	app := &App{
		Renderer: render.Renderer{Policy: policy},
		Analysis: client,
		Health: map[string]middleware.HealthChecker{
			"analysis": &middleware.ServiceHealthChecker{Service: client},
		},
	}

	switch cfg.Storage.Driver {
	case "mysql", "postgres":
		var repo schemaRepo
		if cfg.Storage.Driver == "mysql" {
			app.db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
			if err == nil {
				repo = mysqlp.NewSubmissionRepository(app.db)
			}
		} else {
			app.db, err = postgres.Connect(ctx, cfg.PostgresDSN())
			if err == nil {
				repo = postgres.NewSubmissionRepository(app.db)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s connect: %w", cfg.Storage.Driver, err)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Journal = repo
		app.Health["database"] = &middleware.DatabaseHealthChecker{DB: app.db}
	default:
		app.Journal = memory.NewSubmissionRepository(0)
	}

	var artifacts submissions.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		artifacts = store
		app.Health["archive"] = middleware.CheckFunc(store.Ping)
	}

	observers := append([]upload.Observer{metrics.Observer{}}, extra...)
	app.Controller = upload.NewController(upload.Options{
		Analyzer:  client,
		Journal:   app.Journal,
		Artifacts: artifacts,
		Clock:     application.SystemClock{},
		Logger:    logger,
		Observers: observers,
	})

	logger.Info("console wired",
		"analysis_url", client.BaseURL(),
		"report_trust", string(policy),
		"storage", cfg.Storage.Driver,
		"archive", cfg.Minio.Enabled,
	)
	return app, nil
}
