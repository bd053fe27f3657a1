package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/qafizz/pkg/adapters/fs"
	"github.com/aretw0/qafizz/pkg/adapters/memory"
	"github.com/aretw0/qafizz/pkg/adapters/mongo"
	"github.com/aretw0/qafizz/pkg/adapters/sqldb"
	"github.com/aretw0/qafizz/pkg/core"
)

// Open returns the storage selected by the options.
// The dsn argument is adapter-specific: a directory for fs, a file or
// connection string for sqlite and postgres, a URI for mongo. The memory
// and none adapters ignore it.
func Open(ctx context.Context, dsn string, opts ...Option) (core.Storage, error) {
	return open(ctx, dsn, buildOptions(opts))
}

func open(ctx context.Context, dsn string, o *options) (core.Storage, error) {
	if o.storage != nil {
		return o.storage, nil
	}

	if o.logger != nil {
		o.logger.Debug("opening storage", "adapter", o.adapter)
	}

	switch o.adapter {
	case AdapterMemory:
		return memory.New(), nil
	case AdapterNone:
		return memory.Unavailable{}, nil
	case AdapterFS, "":
		return openFS(ctx, dsn, o)
	case AdapterSQLite, AdapterPostgres:
		dialect, err := sqldb.DialectByName(o.adapter)
		if err != nil {
			return nil, err
		}
		return sqldb.Open(ctx, sqldb.Config{
			Dialect: dialect,
			DSN:     dsn,
			Table:   o.table,
			Logger:  o.logger,
		})
	case AdapterMongo:
		return mongo.Connect(ctx, mongo.Config{
			URI:      dsn,
			Database: o.database,
			Logger:   o.logger,
		})
	}
	return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
}

// openFS handles the path resolution and initialization of the fs adapter.
func openFS(ctx context.Context, path string, o *options) (core.Storage, error) {
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolvePath(path, useTemp)

	if o.logger != nil && useTemp {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}

	s := fs.New(fs.Config{
		Path:         resolved,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
