package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matched, including conditional writes whose guard failed.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference is returned when a foreign key target does not exist.
	ErrMissingReference = errors.New("referenced record missing")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrMissingReference
		case pgInvalidText:
			// a malformed uuid cannot match any row
			return ErrNotFound
		}
	}
	return err
}
