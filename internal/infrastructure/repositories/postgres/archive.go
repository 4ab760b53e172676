package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
)

const (
	connectTimeout = 5 * time.Second
)

var ErrNoSnapshots = errors.New("no archived snapshots")

// db es el subconjunto de pgxpool.Pool que usa el archivo
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect abre el pool y verifica la conexión
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	dbCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(dbCtx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(dbCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// SnapshotArchive guarda cada snapshot refrescado en Postgres
type SnapshotArchive struct {
	db db
}

var _ interfaces.SnapshotArchive = (*SnapshotArchive)(nil)

func NewSnapshotArchive(pool *pgxpool.Pool) *SnapshotArchive {
	return &SnapshotArchive{db: pool}
}

// Migrations devuelve el migrador sobre la misma conexión
func (a *SnapshotArchive) Migrations() *Migrations {
	return NewMigrations(a.db)
}

// Save reemplaza el snapshot del recurso y todas sus cotizaciones en una transacción
func (a *SnapshotArchive) Save(ctx context.Context, id entities.ResourceID, snapshot *entities.RateSnapshot) error {
	if snapshot == nil {
		return entities.ErrSnapshotRequired
	}
	resource := id.String()

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
insert into rate_snapshot (resource, source, update_time, retrieved_at, fetched_at)
values ($1, $2, $3, $4, now())
on conflict (resource)
do update set
  source = excluded.source,
  update_time = excluded.update_time,
  retrieved_at = excluded.retrieved_at,
  fetched_at = now();
`, resource, snapshot.Source(), snapshot.UpdateTime(), snapshot.RetrievedAt())
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", resource, err)
	}

	if _, err := tx.Exec(ctx, `delete from rate_quote where resource = $1;`, resource); err != nil {
		return fmt.Errorf("clear quotes %s: %w", resource, err)
	}

	rates := snapshot.Rates()
	details := snapshot.Details()
	for _, code := range quoteCurrencies(rates, details) {
		d := details[code]
		_, err := tx.Exec(ctx, `
insert into rate_quote (resource, currency, rate, spot_buy, spot_sell, cash_buy, cash_sell)
values ($1, $2, $3, $4, $5, $6, $7);
`, resource, code.String(), rates[code], d.Spot.Buy, d.Spot.Sell, d.Cash.Buy, d.Cash.Sell)
		if err != nil {
			return fmt.Errorf("insert quote %s/%s: %w", resource, code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LatestFetchedAt devuelve el momento del último snapshot archivado
func (a *SnapshotArchive) LatestFetchedAt(ctx context.Context) (time.Time, error) {
	var fetchedAt *time.Time
	if err := a.db.QueryRow(ctx, `select max(fetched_at) from rate_snapshot;`).Scan(&fetchedAt); err != nil {
		return time.Time{}, fmt.Errorf("query latest fetched_at: %w", err)
	}
	if fetchedAt == nil {
		return time.Time{}, ErrNoSnapshots
	}
	return *fetchedAt, nil
}

// quoteCurrencies une las monedas con tasa o detalle, en orden estable
func quoteCurrencies(rates map[entities.CurrencyCode]*float64, details map[entities.CurrencyCode]entities.RateDetail) []entities.CurrencyCode {
	seen := make(map[entities.CurrencyCode]struct{}, len(rates)+len(details))
	for code := range rates {
		seen[code] = struct{}{}
	}
	for code := range details {
		seen[code] = struct{}{}
	}
	out := make([]entities.CurrencyCode, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
