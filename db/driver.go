// Package db — driver.go
// Pluggable driver adapters. Each adapter knows how to build its DSN from
// structured options and which placeholder style its SQL uses, so Open and the
// repositories stay driver-agnostic.
package db

import (
	"fmt"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver interface
// ─────────────────────────────────────────────────────────────────────────────

// Driver encapsulates database-specific behaviour.
type Driver interface {
	// Name returns the name the driver registered with database/sql.
	Name() string

	// DSN converts structured options into a driver DSN string.
	DSN(opts DriverOptions) (string, error)

	// BindType is the placeholder style of the driver's SQL dialect.
	BindType() BindType
}

// DriverOptions carries connection parameters in a driver-agnostic form.
type DriverOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-full", etc.
	// Extra holds driver-specific key/value parameters.
	Extra map[string]string
}

// ─────────────────────────────────────────────────────────────────────────────
// Placeholders
// ─────────────────────────────────────────────────────────────────────────────

// BindType is a placeholder style.
type BindType int

const (
	// BindQuestion is '?' (MySQL, SQLite).
	BindQuestion BindType = iota
	// BindDollar is '$1, $2, …' (PostgreSQL).
	BindDollar
)

// Rebind rewrites the '?' placeholders of query into bt's style. Queries are
// written with '?' and never contain a literal question mark.
func Rebind(bt BindType, query string) string {
	if bt != BindDollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds a Driver to the registry, replacing one with the same name.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name or an error.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("edu-platform/db: driver %q not registered", name)
	}
	return d, nil
}

// OpenWithDriver opens a DB using a registered Driver and structured options.
//
//	database, err := db.OpenWithDriver("postgres", db.DriverOptions{
//	    Host: "localhost", Port: 5432,
//	    User: "edu_user", Password: "edu_pass", Database: "edu_db",
//	}, db.Config{MaxOpenConns: 25})
func OpenWithDriver(driverName string, driverOpts DriverOptions, cfg Config) (*DB, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return nil, err
	}

	dsn, err := drv.DSN(driverOpts)
	if err != nil {
		return nil, fmt.Errorf("edu-platform/db: DSN construction failed: %w", err)
	}

	cfg.DriverName = drv.Name()
	cfg.DSN = dsn
	return Open(cfg)
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL adapters (lib/pq and pgx stdlib)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter. Import _ "github.com/lib/pq" to activate.
type PostgresDriver struct{}

func (PostgresDriver) Name() string                       { return "postgres" }
func (PostgresDriver) BindType() BindType                 { return BindDollar }
func (PostgresDriver) DSN(o DriverOptions) (string, error) { return postgresDSN(o) }

// PgxDriver is the jackc/pgx stdlib adapter.
// Import _ "github.com/jackc/pgx/v5/stdlib" to activate.
type PgxDriver struct{}

func (PgxDriver) Name() string                       { return "pgx" }
func (PgxDriver) BindType() BindType                 { return BindDollar }
func (PgxDriver) DSN(o DriverOptions) (string, error) { return postgresDSN(o) }

// postgresDSN builds the keyword/value form understood by both lib/pq and pgx.
func postgresDSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("postgres driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		"host=" + pgQuote(o.Host),
		"port=" + strconv.Itoa(port),
	}
	if o.User != "" {
		parts = append(parts, "user="+pgQuote(o.User))
	}
	if o.Password != "" {
		parts = append(parts, "password="+pgQuote(o.Password))
	}
	parts = append(parts, "dbname="+pgQuote(o.Database), "sslmode="+pgQuote(sslMode))
	for _, k := range slices.Sorted(maps.Keys(o.Extra)) {
		parts = append(parts, k+"="+pgQuote(o.Extra[k]))
	}
	return strings.Join(parts, " "), nil
}

// pgQuote single-quotes values that are empty or contain spaces, quotes or
// backslashes, escaping the latter two.
func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL adapter
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the go-sql-driver/mysql adapter.
type MySQLDriver struct{}

func (MySQLDriver) Name() string       { return "mysql" }
func (MySQLDriver) BindType() BindType { return BindQuestion }

func (MySQLDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("mysql driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	cfg.DBName = o.Database
	cfg.ParseTime = true
	if len(o.Extra) > 0 {
		cfg.Params = maps.Clone(o.Extra)
	}
	return cfg.FormatDSN(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite adapter
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter. Database is the file path or
// ":memory:".
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string       { return "sqlite3" }
func (SQLiteDriver) BindType() BindType { return BindQuestion }

func (SQLiteDriver) DSN(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	dsn := o.Database
	sep := "?"
	for _, k := range slices.Sorted(maps.Keys(o.Extra)) {
		dsn += sep + k + "=" + o.Extra[k]
		sep = "&"
	}
	return dsn, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Built-in adapters
// ─────────────────────────────────────────────────────────────────────────────

// The database/sql drivers themselves register in their own init() when
// imported; main imports them, tests import sqlite3 only.
func init() {
	RegisterDriver(PostgresDriver{})
	RegisterDriver(PgxDriver{})
	RegisterDriver(MySQLDriver{})
	RegisterDriver(SQLiteDriver{})
}
