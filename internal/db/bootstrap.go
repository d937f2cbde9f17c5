package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Names inside a bootstrap file tree.
const (
	MigrationsDir  = "migrations"
	ProceduresFile = "procedures.sql"
	SeedFile       = "seed.sql"
)

//go:embed sql
var embedded embed.FS

// Files returns the bootstrap tree compiled into the binary.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// ExecSQLFile reads name from fsys and executes its contents on a dedicated
// connection. The file may hold several statements.
func (d *DB) ExecSQLFile(ctx context.Context, fsys fs.FS, name string) error {
	log := d.log.WithField("file", path.Base(name))

	script, err := fs.ReadFile(fsys, name)
	if err != nil {
		log.WithError(err).Error("error executing sql file")
		return fmt.Errorf("db: read %s: %w", name, err)
	}

	conn, err := d.sql.Conn(ctx)
	if err != nil {
		log.WithError(err).Error("error executing sql file")
		return fmt.Errorf("db: acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, string(script)); err != nil {
		log.WithError(err).Error("error executing sql file")
		return fmt.Errorf("db: exec %s: %w", name, err)
	}

	log.Info("sql file executed successfully")
	return nil
}

// Migrate applies every pending migration found under dir in fsys.
func (d *DB) Migrate(ctx context.Context, fsys fs.FS, dir string) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("db: migration source: %w", err)
	}

	conn, err := d.sql.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("db: acquire connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		_ = src.Close()
		return fmt.Errorf("db: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		_ = src.Close()
		return fmt.Errorf("db: migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			d.log.Info("schema up to date")
			return nil
		}
		return fmt.Errorf("db: migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	d.log.WithField("version", version).WithField("dirty", dirty).Info("schema migrated")
	return nil
}

// Initialize brings the database to a usable state: schema migrations, then
// stored procedures, then seed data. Seed data is skipped in production.
func (d *DB) Initialize(ctx context.Context, fsys fs.FS, production bool) error {
	if fsys == nil {
		fsys = Files()
	}
	d.log.Info("initializing database")

	err := d.Migrate(ctx, fsys, MigrationsDir)
	if err == nil {
		err = d.ExecSQLFile(ctx, fsys, ProceduresFile)
	}
	if err == nil && !production {
		err = d.ExecSQLFile(ctx, fsys, SeedFile)
	}
	if err != nil {
		d.log.WithError(err).Error("database initialization failed")
		return err
	}

	d.log.Info("database initialized successfully")
	return nil
}
