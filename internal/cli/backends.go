package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"wordsprint/internal/app"
	"wordsprint/internal/config"
	"wordsprint/internal/domain"
	"wordsprint/internal/infra/csvfile"
	"wordsprint/internal/infra/memory"
	"wordsprint/internal/infra/postgres"
	redisstore "wordsprint/internal/infra/redis"
	"wordsprint/internal/infra/sqlstore"
)

// backends holds the connections a command opened from the config.
type backends struct {
	cfg   config.Config
	redis *redis.Client
	pool  *pgxpool.Pool
	bunDB *bun.DB
	sqlDB *sqlstore.DB
}

func connect(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{cfg: cfg}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.bunDB = postgres.OpenDB(cfg.Postgres.URL)
		if err := runMigrationsWithDB(ctx, b.bunDB); err != nil {
			b.Close()
			return nil, err
		}
	}
	if cfg.Leaderboard.Backend == "sql" {
		dialect, err := sqlstore.DialectFor(cfg.Database.Type)
		if err != nil {
			b.Close()
			return nil, err
		}
		if cfg.Database.Path != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
				b.Close()
				return nil, err
			}
		}
		db, err := sqlstore.Open(ctx, dialect, sqlstore.DialectConfig{Path: cfg.Database.Path, URL: cfg.Database.URL})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.sqlDB = db
	}
	return b, nil
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.bunDB != nil {
		_ = b.bunDB.Close()
	}
	if b.sqlDB != nil {
		_ = b.sqlDB.Close()
	}
}

func (b *backends) wordLoader() memory.WordLoader {
	if b.cfg.Words.Source == "postgres" {
		return postgres.NewWordLoader(b.pool)
	}
	return csvfile.NewWordLoader(b.cfg.Words.Path, b.cfg.Words.PromptColumn, b.cfg.Words.AnswerColumn)
}

func (b *backends) wordRepository() app.WordRepository {
	ttl := config.TTLDuration(b.cfg.Words.CacheTTL, 10*time.Minute)
	if b.redis != nil {
		return redisstore.NewWordRepository(b.redis, b.wordLoader(), ttl, b.cfg.Redis.Prefix)
	}
	return memory.NewWordRepository(b.wordLoader(), ttl)
}

// invalidateWordCache drops the pool shared through redis so running servers
// pick up imported words on their next load.
func (b *backends) invalidateWordCache(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}
	if err := redisstore.NewWordRepository(b.redis, b.wordLoader(), 0, b.cfg.Redis.Prefix).Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate word cache: %w", err)
	}
	return nil
}

func (b *backends) sessionStore() app.SessionRepository {
	if b.redis != nil {
		return redisstore.NewSessionStore(b.redis, config.TTLDuration(b.cfg.Redis.TTL, 10*time.Minute), b.cfg.Redis.Prefix)
	}
	return memory.NewSessionStore()
}

func (b *backends) missTracker() app.MissTracker {
	if b.redis != nil {
		return redisstore.NewMissTracker(b.redis, b.cfg.Redis.Prefix)
	}
	return memory.NewMissTracker()
}

func (b *backends) leaderboard() (*app.Leaderboard, error) {
	var store app.LeaderboardStore
	switch b.cfg.Leaderboard.Backend {
	case "redis":
		store = redisstore.NewLeaderboardStore(b.redis, b.cfg.Redis.Prefix)
	case "postgres":
		store = postgres.NewLeaderboardStore(b.bunDB)
	case "sql":
		store = sqlstore.NewLeaderboardStore(b.sqlDB)
	default:
		log.Printf("leaderboard kept in memory; records are lost on restart")
		store = memory.NewLeaderboardStore()
	}
	policy, err := domain.ParsePolicy(b.cfg.Leaderboard.Policy)
	if err != nil {
		return nil, err
	}
	return app.NewLeaderboard(store, app.LeaderboardOptions{
		Policy:      policy,
		ScopeByMode: b.cfg.Leaderboard.ScopeByMode,
		ScopeByDay:  b.cfg.Leaderboard.ScopeByDay,
		Size:        b.cfg.Leaderboard.Size,
		RankedLimit: b.cfg.Leaderboard.RankedLimit,
	}), nil
}
