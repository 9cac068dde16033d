package tike

import (
	"fmt"
	"log/slog"

	"github.com/nickyhof/tike/config"
	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/db"
	"github.com/nickyhof/tike/op"
	"github.com/nickyhof/tike/ps"
)

type Instance struct {
	Persistence *ps.Persistence
	// History is nil unless snapshots are enabled.
	History  *ps.History
	Identity core.Identity

	logger *slog.Logger
	s3     *db.S3Config
}

func Open(persistence *ps.Persistence) *Instance {
	return &Instance{
		Persistence: persistence,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// OpenConfig opens the database and, when configured, the snapshot history
// named by cfg.
func OpenConfig(cfg *config.Config, logger *slog.Logger) (*Instance, error) {
	backend, err := ps.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	persistence, err := ps.Open(backend, cfg.Database)
	if err != nil {
		return nil, err
	}

	instance := Open(persistence)
	instance.Identity = cfg.History.Author
	instance.s3 = cfg.S3
	if logger != nil {
		instance.logger = logger
	}

	if cfg.History.Enabled() {
		history, err := ps.NewFileHistory(cfg.History.Dir)
		if err != nil {
			persistence.Close()
			return nil, err
		}
		instance.History = history

		if cfg.History.Remote != "" {
			if err := history.AddRemote("origin", cfg.History.Remote); err != nil {
				persistence.Close()
				return nil, fmt.Errorf("failed to configure history remote: %w", err)
			}
		}
	}

	instance.logger.Debug("opened", "backend", backend, "database", cfg.Database, "history", cfg.History.Dir)
	return instance, nil
}

// Engine returns a record engine over the instance's database. opts are
// applied after the instance's own logger and S3 settings.
func (instance *Instance) Engine(opts ...db.Option) *db.Engine {
	base := []db.Option{db.WithLogger(instance.logger)}
	if instance.s3 != nil {
		base = append(base, db.WithS3(*instance.s3))
	}
	return db.NewEngine(instance.Persistence, append(base, opts...)...)
}

// Tasks sets up the task tables and returns the operations over them.
func (instance *Instance) Tasks() (*op.TaskOp, error) {
	var opts []op.TaskOption
	if instance.History != nil {
		opts = append(opts, op.WithHistory(instance.History, instance.Identity))
	}
	return op.NewTaskOp(instance.Engine(), opts...)
}

func (instance *Instance) Close() error {
	return instance.Persistence.Close()
}
