package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lthibault/log"
	"go.uber.org/fx"

	ds "github.com/ipfs/go-datastore"
	ds_sync "github.com/ipfs/go-datastore/sync"
	badgerds "github.com/ipfs/go-ds-badger2"
)

/*************************************************************************
 *                                                                       *
 *  system.go is responsible for interacting with the operating system.  *
 *                                                                       *
 *************************************************************************/

// System provides the datastore.  Data is kept in memory unless the
// "data" flag is set.
func System() fx.Option {
	return fx.Module("system", fx.Provide(
		storage))
}

func storage(env Env, lx fx.Lifecycle) (ds.Batching, error) {
	if !env.IsSet("data") {
		return memstore(), nil
	}

	err := os.MkdirAll(storagePath(env), 0700)
	if err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	return dbstore(env, lx)
}

func memstore() ds.Batching {
	return ds_sync.MutexWrap(ds.NewMapDatastore())
}

func dbstore(env Env, lx fx.Lifecycle) (ds.Batching, error) {
	log := newBadgerLogger(env)

	opt := badgerds.DefaultOptions
	opt.Logger = log

	d, err := badgerds.NewDatastore(storagePath(env), &opt)
	if err != nil {
		return nil, fmt.Errorf("badger: %w", err)
	}

	lx.Append(closer(d))
	lx.Append(syncer(log, d))

	return d, nil
}

func storagePath(env Env) string {
	return filepath.Join(env.Path("data"), "data")
}

func syncer(log log.Logger, s interface {
	Sync(context.Context, ds.Key) error
}) fx.Hook {
	return fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Trace("syncing datastore")
			return s.Sync(ctx, ds.NewKey("/"))
		},
	}
}

type badgerLogger struct{ log.Logger }

func newBadgerLogger(env Env) badgerLogger {
	return badgerLogger{
		Logger: env.Log().WithField("data_dir", storagePath(env)),
	}
}

func (b badgerLogger) Warningf(fmt string, vs ...interface{}) {
	b.Warnf(fmt, vs...)
}
