package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"focorders/internal/config"
	"focorders/internal/erp"
	"focorders/internal/listener"
	"focorders/internal/logging"
	"focorders/internal/metrics"
	"focorders/internal/orders"
	"focorders/internal/pipeline"
	"focorders/internal/storage"
	"focorders/internal/warehouse"
)

// App holds the process-wide dependencies shared by the command-line entry points.
type App struct {
	Cfg     config.Config
	Profile config.OrderProfile
	Log     zerolog.Logger
	Metrics *metrics.Recorder

	db *storage.DB
}

func Load() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	profile, err := config.LoadProfile(cfg.OrderProfilePath)
	if err != nil {
		return nil, err
	}
	return &App{
		Cfg:     cfg,
		Profile: profile,
		Log:     logging.New(cfg.LogLevel, cfg.LogFormat),
		Metrics: metrics.NewRecorder(),
	}, nil
}

// DB opens the local store on first use.
func (a *App) DB() (*storage.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := storage.Open(a.Cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.Cfg.DBPath, err)
	}
	a.db = db
	return db, nil
}

func (a *App) Builder() *orders.Builder {
	return orders.NewBuilder(a.Profile)
}

// Planner builds requests for dry runs; it has no ERP session or warehouse.
func (a *App) Planner() *pipeline.SubmissionService {
	return pipeline.NewSubmissionService(nil, nil, a.Builder(), a.Log)
}

func (a *App) Writer(ctx context.Context) (warehouse.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(a.Cfg.WarehouseDriver)) {
	case "bigquery", "":
		bq, err := warehouse.NewBigQueryWriter(ctx, a.Cfg)
		if err != nil {
			return nil, err
		}
		return bq, nil
	case "sqlite":
		db, err := a.DB()
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported WAREHOUSE_DRIVER: %s", a.Cfg.WarehouseDriver)
	}
}

func (a *App) SubmissionService(ctx context.Context) (*pipeline.SubmissionService, error) {
	client, err := erp.NewClient(a.Cfg)
	if err != nil {
		return nil, err
	}
	writer, err := a.Writer(ctx)
	if err != nil {
		return nil, err
	}
	db, err := a.DB()
	if err != nil {
		return nil, err
	}
	gateway := warehouse.NewGateway(writer, a.Profile.UnitOfMeasure)
	return pipeline.NewSubmissionService(client, gateway, a.Builder(), a.Log).
		WithMetrics(a.Metrics).
		WithRunLog(db), nil
}

func (a *App) Listener(ctx context.Context, opts listener.Options) (*listener.Service, error) {
	db, err := a.DB()
	if err != nil {
		return nil, err
	}
	connector, err := listener.MakeConnector(ctx, a.Cfg, opts.Provider)
	if err != nil {
		return nil, err
	}
	submitter, err := a.SubmissionService(ctx)
	if err != nil {
		return nil, err
	}
	return listener.NewService(db, connector, submitter, opts, a.Log), nil
}

// Flush writes the metrics textfile, if configured.
func (a *App) Flush() {
	if err := a.Metrics.WriteTextfile(a.Cfg.MetricsTextfile); err != nil {
		a.Log.Warn().Err(err).Str("path", a.Cfg.MetricsTextfile).Msg("metrics textfile write failed")
	}
}

func (a *App) Close() error {
	a.Flush()
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
