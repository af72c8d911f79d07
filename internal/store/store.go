// Package store holds the postgres repositories behind the form service.
package store

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrQueryFailed  = errors.New("database query failed")
	ErrInsertFailed = errors.New("database insert failed")
	ErrDeleteFailed = errors.New("database delete failed")
)

// Schema is applied in order by the migrate command.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		company         TEXT NOT NULL DEFAULT '',
		location        TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL DEFAULT '',
		description     TEXT NOT NULL DEFAULT '',
		active          BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id               UUID PRIMARY KEY,
		submission_id    UUID NOT NULL UNIQUE,
		session_id       TEXT NOT NULL,
		job_id           TEXT,
		applicant_name   TEXT NOT NULL,
		email            TEXT NOT NULL,
		phone            TEXT NOT NULL,
		years_experience TEXT NOT NULL,
		education        TEXT NOT NULL,
		skills           JSONB NOT NULL DEFAULT '[]',
		documents        JSONB NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS applications_job_id_idx ON applications (job_id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id            BIGSERIAL PRIMARY KEY,
		event_type    TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT NOT NULL,
		details       JSONB NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         UUID PRIMARY KEY,
		type       TEXT NOT NULL,
		channel    TEXT NOT NULL,
		recipient  TEXT NOT NULL,
		status     TEXT NOT NULL,
		error      TEXT NOT NULL DEFAULT '',
		sent_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contact_messages (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT NOT NULL DEFAULT '',
		subject    TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		id         UUID PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		source     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}
