package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
)

// Query runs a statement returning rows. The caller must close the rows.
func (d *DB) Query(ctx context.Context, text string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.sql.QueryContext(ctx, text, args...)
	if err != nil {
		d.log.WithError(err).WithField("text", text).Error("query error")
		return nil, err
	}
	d.log.WithFields(logrus.Fields{
		"text":        text,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("executed query")
	return rows, nil
}

// QueryRow runs a statement expected to return at most one row.
// Errors are deferred to Scan, as with database/sql.
func (d *DB) QueryRow(ctx context.Context, text string, args ...any) *sql.Row {
	start := time.Now()
	row := d.sql.QueryRowContext(ctx, text, args...)
	d.log.WithFields(logrus.Fields{
		"text":        text,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("executed query")
	return row
}

// Exec runs a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, text string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := d.sql.ExecContext(ctx, text, args...)
	if err != nil {
		d.log.WithError(err).WithField("text", text).Error("query error")
		return nil, err
	}

	fields := logrus.Fields{
		"text":        text,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if n, err := res.RowsAffected(); err == nil {
		fields["rows"] = n
	}
	d.log.WithFields(fields).Debug("executed query")
	return res, nil
}

// Conn checks out a dedicated connection, e.g. for a transaction spanning
// several statements. The caller must Close it to return it to the pool.
func (d *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	return d.sql.Conn(ctx)
}
