package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loveos/couple-api/internal/core/ports"
	"github.com/loveos/couple-api/internal/infrastructure/config"
	memstore "github.com/loveos/couple-api/internal/infrastructure/db/memory"
	mongostore "github.com/loveos/couple-api/internal/infrastructure/db/mongo"
	pgstore "github.com/loveos/couple-api/internal/infrastructure/db/postgres"
	redisstore "github.com/loveos/couple-api/internal/infrastructure/db/redis"
	"github.com/loveos/couple-api/internal/infrastructure/http/handlers"
)

// storage bundles the selected user store, the revocation store, their
// readiness checks and the functions releasing their connections.
type storage struct {
	users       ports.UserRepository
	revocations ports.TokenRevocationStore
	checks      map[string]handlers.Check
	closers     []func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *storage, err error) {
	st := &storage{checks: make(map[string]handlers.Check)}
	defer func() {
		if err != nil {
			st.close(log)
		}
	}()

	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("memory storage selected, accounts are lost on restart")
		st.users = memstore.NewUserRepository()
		st.revocations = memstore.NewRevocationStore()
		return st, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Disconnect)
		repo := mongostore.NewUserRepository(db, cfg.Mongo.Transactions)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		st.users = repo
		st.checks["mongo"] = handlers.MongoCheck(db)

	case config.DriverPostgres:
		db, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func(context.Context) error { return db.Close() })
		if err := pgstore.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
		st.users = pgstore.NewUserRepository(db)
		st.checks["postgres"] = handlers.SQLCheck(db)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	st.closers = append(st.closers, func(context.Context) error { return rdb.Close() })
	st.revocations = redisstore.NewRevocationStore(rdb)
	st.checks["redis"] = handlers.RedisCheck(rdb)

	log.Info().Str("driver", cfg.StorageDriver).Msg("storage connected")
	return st, nil
}

// close releases connections in reverse order of opening.
func (s *storage) close(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Error().Err(err).Msg("close storage connection")
		}
	}
	s.closers = nil
}
