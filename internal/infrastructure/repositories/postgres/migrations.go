package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Migrations crea las tablas del archivo de snapshots
type Migrations struct {
	db execer
}

func NewMigrations(db execer) *Migrations {
	return &Migrations{db: db}
}

func (m *Migrations) Setup(ctx context.Context) error {
	if err := m.setupSnapshotTable(ctx); err != nil {
		return fmt.Errorf("setup rate_snapshot: %w", err)
	}
	if err := m.setupQuoteTable(ctx); err != nil {
		return fmt.Errorf("setup rate_quote: %w", err)
	}
	return nil
}

func (m *Migrations) setupSnapshotTable(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
create table if not exists rate_snapshot (
  resource     text primary key,
  source       text not null default '',
  update_time  text not null default '',
  retrieved_at timestamptz not null,
  fetched_at   timestamptz not null default now()
);

create index if not exists idx_rate_snapshot_fetched_at
  on rate_snapshot (fetched_at desc);
`)
	if err != nil {
		return fmt.Errorf("ensure table rate_snapshot: %w", err)
	}
	return nil
}

func (m *Migrations) setupQuoteTable(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
create table if not exists rate_quote (
  resource  text not null references rate_snapshot (resource) on delete cascade,
  currency  char(3) not null,
  rate      numeric(20, 10),
  spot_buy  numeric(20, 10),
  spot_sell numeric(20, 10),
  cash_buy  numeric(20, 10),
  cash_sell numeric(20, 10),
  primary key (resource, currency)
);
`)
	if err != nil {
		return fmt.Errorf("ensure table rate_quote: %w", err)
	}
	return nil
}
