package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"table-manager/core/config"
	"table-manager/core/database"
	"table-manager/core/logger"
	"table-manager/feature/project"
	"table-manager/feature/tablestore"

	"go.uber.org/zap"
)

// session bundles what every command needs.
type session struct {
	cfg *config.Config
	log *zap.Logger
	ctx context.Context
}

// setup loads configuration, builds a run-scoped logger and a context that
// is cancelled on SIGINT/SIGTERM. The returned func must be deferred.
func setup() (*session, func(), error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	l = logger.WithRunID(l, logger.NewRunID())
	zap.ReplaceGlobals(l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cleanup := func() {
		stop()
		_ = l.Sync()
	}
	return &session{cfg: cfg, log: l, ctx: ctx}, cleanup, nil
}

// openStore connects the table store. A relative sqlite path is resolved
// against the project directory.
func (rt *session) openStore(p *project.Project) (*tablestore.Store, error) {
	dbCfg := rt.cfg.Database
	if (dbCfg.Driver == "sqlite" || dbCfg.Driver == "") && dbCfg.Name != ":memory:" && !filepath.IsAbs(dbCfg.Name) {
		dbCfg.Name = filepath.Join(p.Dir, dbCfg.Name)
	}
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, err
	}
	rt.log.Debug("Table store connected", zap.String("driver", db.Dialector.Name()))
	return tablestore.New(db, rt.log)
}
