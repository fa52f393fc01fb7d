package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the gate store (SQLite).
var Migrations = migrate.NewGroup("gate")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_actors",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gate_actors (
    id                TEXT PRIMARY KEY,
    tenant_id         TEXT NOT NULL DEFAULT '',
    role              TEXT NOT NULL,
    name              TEXT NOT NULL DEFAULT '',
    email             TEXT NOT NULL DEFAULT '',
    active            INTEGER NOT NULL DEFAULT 1,
    reviewer_capable  INTEGER NOT NULL DEFAULT 0,
    metadata          TEXT NOT NULL DEFAULT '{}',
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_gate_actors_tenant ON gate_actors (tenant_id);
CREATE INDEX IF NOT EXISTS idx_gate_actors_role ON gate_actors (tenant_id, role);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gate_actors`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_resources",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gate_resources (
    id                TEXT PRIMARY KEY,
    kind              TEXT NOT NULL,
    tenant_id         TEXT NOT NULL DEFAULT '',
    owner_id          TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT '',
    ref_journal       TEXT,
    ref_registration  TEXT,
    facts             TEXT NOT NULL DEFAULT '{}',
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_gate_resources_kind ON gate_resources (kind, id);
CREATE INDEX IF NOT EXISTS idx_gate_resources_tenant ON gate_resources (tenant_id);
CREATE INDEX IF NOT EXISTS idx_gate_resources_owner ON gate_resources (kind, owner_id);
CREATE INDEX IF NOT EXISTS idx_gate_resources_ref_journal ON gate_resources (ref_journal);
CREATE INDEX IF NOT EXISTS idx_gate_resources_ref_registration ON gate_resources (ref_registration);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gate_resources`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gate_decision_logs (
    id                TEXT PRIMARY KEY,
    tenant_id         TEXT NOT NULL DEFAULT '',
    actor_id          TEXT NOT NULL,
    actor_role        TEXT NOT NULL DEFAULT '',
    action            TEXT NOT NULL,
    resource_kind     TEXT NOT NULL,
    resource_id       TEXT NOT NULL DEFAULT '',
    allowed           INTEGER NOT NULL DEFAULT 0,
    reason            TEXT NOT NULL DEFAULT '',
    detail            TEXT NOT NULL DEFAULT '',
    eval_time_ns      INTEGER NOT NULL DEFAULT 0,
    metadata          TEXT NOT NULL DEFAULT '{}',
    created_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_gate_decision_logs_tenant ON gate_decision_logs (tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_gate_decision_logs_actor ON gate_decision_logs (actor_id, created_at);
CREATE INDEX IF NOT EXISTS idx_gate_decision_logs_created ON gate_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gate_decision_logs`)
				return err
			},
		},
	)
}
