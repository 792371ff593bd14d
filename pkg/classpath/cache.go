package classpath

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	ds "github.com/ipfs/go-datastore"
	"github.com/lthibault/log"
	"lukechampine.com/blake3"
)

// Cache memoizes the resolutions of a Source in a datastore.  Entries are
// keyed by the CLI arguments and the content of the deps.edn file in Dir,
// so that editing deps.edn invalidates them.
type Cache struct {
	Source Source
	Store  ds.Datastore

	// Scope distinguishes entries produced by different sources sharing
	// a store, e.g. different CLI executables.
	Scope string

	// Dir holds the deps.edn file.  It defaults to the current working
	// directory.
	Dir string

	Log log.Logger
}

func (c Cache) Resolve(ctx context.Context, args ...string) (Classpath, error) {
	key, err := c.Key(args...)
	if err != nil {
		return nil, err
	}

	switch b, err := c.Store.Get(ctx, key); {
	case err == nil:
		c.logger().WithField("key", key).Debug("classpath cache hit")
		return Parse(string(b)), nil

	case !errors.Is(err, ds.ErrNotFound):
		c.logger().WithError(err).Warn("failed to read classpath cache")
	}

	cp, err := c.Source.Resolve(ctx, args...)
	if err != nil {
		return nil, err
	}

	if err = c.Store.Put(ctx, key, []byte(cp.String())); err != nil {
		c.logger().WithError(err).Warn("failed to write classpath cache")
	}

	return cp, nil
}

// Key returns the datastore key for a resolution with args.
func (c Cache) Key(args ...string) (ds.Key, error) {
	h := blake3.New(32, nil)
	h.Write([]byte(c.Scope))
	for _, arg := range args {
		h.Write([]byte{0})
		h.Write([]byte(arg))
	}

	deps, err := os.ReadFile(filepath.Join(c.Dir, "deps.edn"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return ds.Key{}, err
	}

	h.Write([]byte{1})
	h.Write(deps)

	return ds.NewKey("/classpath/" + hex.EncodeToString(h.Sum(nil))), nil
}

func (c Cache) logger() log.Logger {
	if c.Log == nil {
		return log.New(log.WithLevel(log.FatalLevel))
	}

	return c.Log
}
