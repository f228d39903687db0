// Package database provisions and drops the Joomla MariaDB database. It
// speaks the MySQL wire protocol over the local unix socket instead of
// shelling out to the mysql client.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/joomlactl/joomlactl/pkg/credentials"
)

// DefaultSocket is the MariaDB unix socket on Ubuntu.
const DefaultSocket = "/run/mysqld/mysqld.sock"

// Manager executes administrative statements against the local server.
type Manager struct {
	socket  string
	verbose bool
}

// NewManager creates a database manager for the given unix socket.
func NewManager(socket string, verbose bool) *Manager {
	if socket == "" {
		socket = DefaultSocket
	}
	return &Manager{socket: socket, verbose: verbose}
}

// open connects as root with the given password (empty on a fresh install,
// where the unix_socket auth plugin lets root in without one).
func (m *Manager) open(ctx context.Context, rootPassword string) (*sql.DB, error) {
	dsn := fmt.Sprintf("root:%s@unix(%s)/", rootPassword, m.socket)
	if rootPassword == "" {
		dsn = fmt.Sprintf("root@unix(%s)/", m.socket)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB connection: %w", err)
	}
	db.SetConnMaxLifetime(time.Minute)
	db.SetMaxOpenConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MariaDB on %s: %w", m.socket, err)
	}
	return db, nil
}

// Secure applies the fresh-install hardening: sets the root password, drops
// anonymous users and the test database.
func (m *Manager) Secure(ctx context.Context, rootPassword string) error {
	db, err := m.open(ctx, "")
	if err != nil {
		// Root password may already be set from an earlier run.
		db, err = m.open(ctx, rootPassword)
		if err != nil {
			return err
		}
	}
	defer db.Close()

	stmts := []string{
		fmt.Sprintf("ALTER USER 'root'@'localhost' IDENTIFIED BY '%s'", escape(rootPassword)),
		"DELETE FROM mysql.user WHERE User=''",
		"DROP DATABASE IF EXISTS test",
		"DELETE FROM mysql.db WHERE Db='test' OR Db='test\\_%'",
		"FLUSH PRIVILEGES",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to secure MariaDB: %w", err)
		}
	}
	return nil
}

// CreateSite creates the Joomla database and its dedicated user.
func (m *Manager) CreateSite(ctx context.Context, rootPassword, dbName, dbUser, dbPassword string) error {
	db, err := m.open(ctx, rootPassword)
	if err != nil {
		return err
	}
	defer db.Close()

	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", dbName),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY '%s'", escape(dbUser), escape(dbPassword)),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost'", dbName, escape(dbUser)),
		"FLUSH PRIVILEGES",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create database %s: %w", dbName, err)
		}
	}
	return nil
}

// DropSite removes the database and user named in the credential record.
// Callers must check Record.Complete first; an incomplete record means the
// drop is skipped, not guessed at.
func (m *Manager) DropSite(ctx context.Context, rec *credentials.Record) error {
	if !rec.Complete() {
		return fmt.Errorf("credential record incomplete, refusing to drop")
	}

	db, err := m.open(ctx, rec.RootPassword)
	if err != nil {
		return err
	}
	defer db.Close()

	stmts := []string{
		fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", rec.DBName),
		fmt.Sprintf("DROP USER IF EXISTS '%s'@'localhost'", escape(rec.DBUser)),
		"FLUSH PRIVILEGES",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop database %s: %w", rec.DBName, err)
		}
	}
	return nil
}

// escape escapes single quotes and backslashes for embedding in a string
// literal. Identifiers (db names) are sanitized upstream and backtick-quoted.
func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
