// Package db owns the PostgreSQL connection pool and the schema bootstrap.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// Config describes how to reach PostgreSQL and how large the pool may grow.
type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int           `yaml:"maxConns"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ConnectTimeout  time.Duration `yaml:"connectTimeout"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DefaultConfig returns the local development defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		Name:            "app",
		User:            "postgres",
		SSLMode:         "disable",
		MaxConns:        20,
		IdleTimeout:     30 * time.Second,
		ConnectTimeout:  2 * time.Second,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func (c Config) maxConns() int {
	if c.MaxConns <= 0 {
		return 20
	}
	return c.MaxConns
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return 2 * time.Second
	}
	return c.ConnectTimeout
}

// DSN renders the config as a postgres:// URL understood by pgx.
func (c Config) DSN() string {
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	// connect_timeout is in whole seconds; round up so 500ms does not become 0 (no limit).
	secs := int(math.Ceil(c.connectTimeout().Seconds()))
	q.Set("connect_timeout", strconv.Itoa(secs))

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	return u.String()
}

// DB is a pool of PostgreSQL connections with logging query helpers.
type DB struct {
	sql *sql.DB
	log logrus.FieldLogger
	cfg Config
}

// New creates the pool without dialing. Connections are made on first use,
// so a database that is down at startup can come up later.
func New(cfg Config, log logrus.FieldLogger) (*DB, error) {
	if cfg.Host == "" {
		return nil, errors.New("db: host is empty")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.maxConns())
	sqlDB.SetMaxIdleConns(cfg.maxConns())
	if cfg.IdleTimeout > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.IdleTimeout)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &DB{sql: sqlDB, log: log, cfg: cfg}, nil
}

// Open creates the pool and validates connectivity within the connect timeout.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (*DB, error) {
	d, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := d.Connect(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Connect pings the database within the connect timeout and logs the
// outcome on success.
func (d *DB) Connect(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.cfg.connectTimeout())
	defer cancel()
	if err := d.sql.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db: ping %s:%d: %w", d.cfg.Host, d.cfg.Port, err)
	}

	d.log.WithFields(logrus.Fields{
		"host":      d.cfg.Host,
		"database":  d.cfg.Name,
		"max_conns": d.cfg.maxConns(),
	}).Info("database connected successfully")
	return nil
}

// SQL exposes the underlying pool.
func (d *DB) SQL() *sql.DB { return d.sql }

// Ping checks that a connection can be acquired and used.
func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

// Stats reports pool usage.
func (d *DB) Stats() sql.DBStats { return d.sql.Stats() }

// Close releases every pooled connection.
func (d *DB) Close() error { return d.sql.Close() }
