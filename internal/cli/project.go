package cli

import (
	"context"
	"os"

	"github.com/adnumaro/storyarn/pkg/store"
	"github.com/adnumaro/storyarn/pkg/store/memory"
	mongostore "github.com/adnumaro/storyarn/pkg/store/mongo"
)

// openStore builds the store selected by the config: MongoDB when a URI
// is configured, otherwise the in-memory store loaded from the project
// file. The returned save function persists file-backed changes (a no-op
// for Mongo, which writes through) and close releases the connection.
func openStore(ctx context.Context, cfg Config) (st store.Store, save func() error, shutdown func() error, err error) {
	noop := func() error { return nil }

	if cfg.Mongo.URI != "" {
		ms, disconnect, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return ms, noop, func() error { return disconnect(ctx) }, nil
	}

	mem, err := loadProject(cfg.Project)
	if err != nil {
		return nil, nil, nil, err
	}
	return mem, func() error { return mem.Save(cfg.Project) }, noop, nil
}

// loadProject reads the project file, starting empty when it does not
// exist yet.
func loadProject(path string) (*memory.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return memory.New(), nil
	}
	return memory.Load(path)
}
