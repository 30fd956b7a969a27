package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id UUID PRIMARY KEY,
    nshe_id VARCHAR(10) NOT NULL UNIQUE CHECK (nshe_id ~ '^[0-9]{10}$'),
    first_name VARCHAR(50) NOT NULL,
    last_name VARCHAR(50) NOT NULL,
    email VARCHAR(100) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_staff BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- One row per offered slot; submissions lock it to serialize capacity checks.
CREATE TABLE IF NOT EXISTS time_slots (
    label VARCHAR(5) PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS reservations (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    exam_type VARCHAR(32) NOT NULL,
    time_slot VARCHAR(5) NOT NULL REFERENCES time_slots(label),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT reservations_account_exam_slot_key UNIQUE (account_id, exam_type, time_slot)
);

CREATE INDEX IF NOT EXISTS reservations_time_slot_idx ON reservations (time_slot);

CREATE TABLE IF NOT EXISTS audit_logs (
    id UUID PRIMARY KEY,
    account_id UUID,
    action VARCHAR(32) NOT NULL,
    resource VARCHAR(64) NOT NULL,
    resource_id TEXT,
    new_values JSONB,
    ip_address TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates missing tables and seeds one time_slots row per label.
func EnsureSchema(ctx context.Context, db *sqlx.DB, slotLabels []string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	const insertSlot = `INSERT INTO time_slots (label) VALUES ($1) ON CONFLICT (label) DO NOTHING`
	for _, label := range slotLabels {
		if _, err := db.ExecContext(ctx, insertSlot, label); err != nil {
			return fmt.Errorf("seed time slot %s: %w", label, err)
		}
	}
	return nil
}
