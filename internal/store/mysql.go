package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/user/movie-planner-go/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLSource reads the dataset tables from a MySQL database. Tables use the same
// names and columns as the CSV files. The source only ever reads.
type MySQLSource struct {
	db *gorm.DB
}

// NewMySQLSource connects to MySQL and returns a source over it
func NewMySQLSource(cfg *config.DBConfig) (*MySQLSource, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &MySQLSource{db: db}, nil
}

// NewSQLSource wraps an already opened gorm connection of any dialect
func NewSQLSource(db *gorm.DB) *MySQLSource {
	return &MySQLSource{db: db}
}

// Open selects every row of a table. NULL cells read as empty strings.
func (s *MySQLSource) Open(ctx context.Context, table string) (*RawTable, error) {
	if !s.db.WithContext(ctx).Migrator().HasTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	rows, err := s.db.WithContext(ctx).Table(table).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var out [][]string
	cells := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table %s: %w", table, err)
	}

	return NewRawTable(header, out), nil
}

// Ping checks database connectivity
func (s *MySQLSource) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *MySQLSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}
