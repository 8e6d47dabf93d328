package db

import (
	"strings"

	"gorm.io/gorm"
)

// Dialect identifiers supported by the database layer.
const (
	// DialectPostgres is the PostgreSQL dialect name.
	DialectPostgres = "postgres"
	// DialectSQLite is the SQLite dialect name.
	DialectSQLite = "sqlite"
)

// DialectName returns the active database dialect name.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsSQLite reports whether the connection uses SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return DialectName(conn) == DialectSQLite
}

// IsLockContention reports whether err is a lock-wait or serialization
// failure from the storage engine. Such failures are retryable from scratch
// and must never be treated as data corruption.
func IsLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"), // SQLite busy writer.
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "sqlstate 55p03"), // Postgres lock_not_available.
		strings.Contains(msg, "sqlstate 40p01"), // Postgres deadlock_detected.
		strings.Contains(msg, "sqlstate 40001"): // Postgres serialization_failure.
		return true
	}
	return false
}
