package seen

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"horse.fit/localwire/internal/db"
)

const insertChunkSize = 1000

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// TxBeginner is the slice of db.Pool the database backend needs.
type TxBeginner interface {
	db.Querier
	BeginTx(ctx context.Context) (db.Tx, error)
}

// DBBackend keeps one region's keys in localwire.seen_links.
type DBBackend struct {
	pool   TxBeginner
	region string
}

func NewDBBackend(pool TxBeginner, region string) *DBBackend {
	return &DBBackend{
		pool:   pool,
		region: strings.ToLower(strings.TrimSpace(region)),
	}
}

func (b *DBBackend) Describe() string {
	return "postgres:" + db.SeenLinksTable + "/" + b.region
}

func (b *DBBackend) Load(ctx context.Context) ([]string, error) {
	if b == nil || b.pool == nil {
		return nil, fmt.Errorf("seen database backend is not initialized")
	}

	query, args, err := psql.
		Select("link_key").
		From(db.SeenLinksTable).
		Where(sq.Eq{"region": b.region}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen select: %w", err)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select seen links: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan seen link: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen links: %w", err)
	}
	return keys, nil
}

// Save syncs the region's rows to keys inside one transaction.
func (b *DBBackend) Save(ctx context.Context, keys []string) error {
	if b == nil || b.pool == nil {
		return fmt.Errorf("seen database backend is not initialized")
	}

	tx, err := b.pool.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin seen save tx: %w", err)
	}

	if err := replaceRegionKeys(ctx, tx, b.region, keys); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit seen save tx: %w", err)
	}
	return nil
}

// Count returns how many keys are persisted for the region.
func (b *DBBackend) Count(ctx context.Context) (int64, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From(db.SeenLinksTable).
		Where(sq.Eq{"region": b.region}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build seen count: %w", err)
	}

	var count int64
	if err := b.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		if db.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count seen links: %w", err)
	}
	return count, nil
}

// replaceRegionKeys makes the region's rows equal to keys. Evicted keys are
// deleted and surviving keys keep their marked_at while their position moves.
func replaceRegionKeys(ctx context.Context, tx db.Querier, region string, keys []string) error {
	query, args, err := psql.Delete(db.SeenLinksTable).
		Where(sq.And{sq.Eq{"region": region}, sq.NotEq{"link_key": keys}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build seen delete: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete seen links: %w", err)
	}

	for start := 0; start < len(keys); start += insertChunkSize {
		end := min(start+insertChunkSize, len(keys))
		insert := psql.Insert(db.SeenLinksTable).
			Columns("region", "link_key", "position").
			Suffix("ON CONFLICT (region, link_key) DO UPDATE SET position = EXCLUDED.position")
		for i, key := range keys[start:end] {
			insert = insert.Values(region, key, int64(start+i))
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build seen insert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert seen links: %w", err)
		}
	}
	return nil
}
