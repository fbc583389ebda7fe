package account

import (
	"context"
	"fmt"

	"github.com/redmonkez12/storefront-api/internal/config"
	"github.com/redmonkez12/storefront-api/internal/database"
)

// Open connects the store selected by cfg.Store.Driver. The returned func
// releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config) (Store, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(db), func(context.Context) error { return db.Close() }, nil

	case config.StoreDriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		store := NewMongoStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, client.Disconnect, nil

	case config.StoreDriverMemory:
		return NewMemoryStore(), func(context.Context) error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
