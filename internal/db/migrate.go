package db

import (
	"context"
	"database/sql"
)

const attendanceMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS semesters (
    id bigserial PRIMARY KEY,
    number int NOT NULL UNIQUE,
    name text NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
    id bigserial PRIMARY KEY,
    semester_id bigint NOT NULL REFERENCES semesters(id),
    name text NOT NULL,
    CONSTRAINT uq_sections_semester_name UNIQUE (semester_id, name)
);

CREATE TABLE IF NOT EXISTS sessions (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    section_id bigint NOT NULL REFERENCES sections(id),
    period_id text NOT NULL,
    date_local text NOT NULL,
    course text NOT NULL,
    faculty_name text NOT NULL,
    token text NOT NULL,
    token_tail text NOT NULL,
    short_code text NOT NULL,
    status text NOT NULL DEFAULT 'OPEN',
    start_at_utc timestamptz NOT NULL,
    end_at_utc timestamptz NOT NULL,
    closed_at_utc timestamptz,
    start_ip_hash text NOT NULL,
    created_at_utc timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_sessions_token UNIQUE (token),
    CONSTRAINT uq_sessions_short_code UNIQUE (short_code)
);

-- Enforces the single-open-session invariant at the store level; the
-- controller treats a violation as an expected conflict.
CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_one_open_per_section
ON sessions (section_id) WHERE status = 'OPEN';

CREATE INDEX IF NOT EXISTS idx_sessions_start_ip_created
ON sessions (start_ip_hash, created_at_utc);

CREATE TABLE IF NOT EXISTS session_logs (
    session_id uuid PRIMARY KEY REFERENCES sessions(id),
    section_id bigint NOT NULL,
    period_id text NOT NULL,
    date_local text NOT NULL,
    course text NOT NULL,
    faculty_name text NOT NULL,
    start_at_utc timestamptz NOT NULL,
    end_at_utc timestamptz NOT NULL,
    closed_at_utc timestamptz NOT NULL,
    duration_sec int NOT NULL,
    present_count int NOT NULL,
    status text NOT NULL,
    start_ip_hash text NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance_submissions (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    session_id uuid NOT NULL REFERENCES sessions(id),
    section_id bigint NOT NULL,
    period_id text NOT NULL,
    date_local text NOT NULL,
    roll text NOT NULL,
    name text NOT NULL,
    ip_hash text NOT NULL,
    device_hash text,
    user_agent_hash text,
    submitted_at_utc timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_submissions_session_roll UNIQUE (session_id, roll)
);

-- Keeps the cross-session device-dedup lookup sub-linear.
CREATE INDEX IF NOT EXISTS idx_submissions_device_slot
ON attendance_submissions (section_id, date_local, period_id, device_hash);

CREATE INDEX IF NOT EXISTS idx_submissions_ip_submitted
ON attendance_submissions (ip_hash, submitted_at_utc);

CREATE INDEX IF NOT EXISTS idx_submissions_roll_submitted
ON attendance_submissions (roll, submitted_at_utc);

CREATE TABLE IF NOT EXISTS idempotency_keys (
    key text PRIMARY KEY,
    section_id bigint NOT NULL,
    session_id uuid,
    expires_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS passkeys (
    id bigserial PRIMARY KEY,
    hash text NOT NULL,
    version int NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS admin_users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    password_hash text NOT NULL,
    created_at_utc timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS admin_users_email_lower_unique
ON admin_users (LOWER(email));

CREATE TABLE IF NOT EXISTS outbox_events (
    id uuid PRIMARY KEY,
    request_id text,
    aggregate_type text NOT NULL,
    aggregate_id text NOT NULL,
    event_type text NOT NULL,
    topic text NOT NULL,
    payload jsonb NOT NULL,
    status text NOT NULL DEFAULT 'pending',
    retry_count int NOT NULL DEFAULT 0,
    error_message text,
    next_retry_at timestamptz,
    processed_at timestamptz,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_outbox_status_retry
ON outbox_events (status, next_retry_at);
`

func RunAttendanceMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, attendanceMigration)
	return err
}
