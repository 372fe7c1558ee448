package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hypernova-labs/products-service/internal/config"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DB representa el pool de conexiones a PostgreSQL
type DB struct {
	*sql.DB
	acquireTimeout time.Duration
	queryTimeout   time.Duration
}

// Connect establece la conexión a PostgreSQL y configura el pool
func Connect(cfg *config.Config) (*DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	wrapped := NewDB(db, cfg.Database.AcquireTimeout, cfg.Database.QueryTimeout)

	// Verificar conexión
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.AcquireTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return wrapped, nil
}

// NewDB envuelve un *sql.DB ya abierto
func NewDB(db *sql.DB, acquireTimeout, queryTimeout time.Duration) *DB {
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &DB{
		DB:             db,
		acquireTimeout: acquireTimeout,
		queryTimeout:   queryTimeout,
	}
}

// Close cierra el pool de conexiones
func (db *DB) Close() error {
	return db.DB.Close()
}

// WithConn toma una conexión del pool, ejecuta fn y la devuelve al pool
// en cualquier camino de salida, incluido un panic.
func (db *DB) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, db.acquireTimeout)
	conn, err := db.Conn(acquireCtx)
	cancelAcquire()
	if err != nil {
		return fmt.Errorf("error acquiring connection: %w", err)
	}
	defer conn.Close()

	queryCtx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	return fn(queryCtx, conn)
}

// HealthCheck verifica la salud de la base de datos con una query trivial
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		var one int
		if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("database query test failed: %w", err)
		}
		return nil
	})
}

// GetStats retorna estadísticas del pool
func (db *DB) GetStats() map[string]interface{} {
	s := db.Stats()
	return map[string]interface{}{
		"max_open_connections": s.MaxOpenConnections,
		"open_connections":     s.OpenConnections,
		"in_use":               s.InUse,
		"idle":                 s.Idle,
		"wait_count":           s.WaitCount,
		"wait_duration":        s.WaitDuration.String(),
		"max_idle_closed":      s.MaxIdleClosed,
		"max_lifetime_closed":  s.MaxLifetimeClosed,
	}
}

// LogStats registra las estadísticas del pool
func (db *DB) LogStats(logger *logrus.Logger) {
	logger.WithFields(logrus.Fields(db.GetStats())).Info("Database pool statistics")
}
