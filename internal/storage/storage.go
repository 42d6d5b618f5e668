// Package storage keeps the SEC ticker-to-CIK directory in SQLite so that
// runs do not refetch company_tickers.json every time.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Company is one row of the CIK directory.
type Company struct {
	Ticker string
	CIK    string
	Name   string
}

type Storage struct {
	db *sql.DB
}

// New opens or creates the database at dbPath. ":memory:" is accepted.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "cik.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			ticker     TEXT PRIMARY KEY,
			cik        TEXT NOT NULL,
			name       TEXT,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_fetched_at ON companies(fetched_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCompanies upserts the given rows in one transaction, stamping them with fetchedAt.
func (s *Storage) SaveCompanies(ctx context.Context, companies []Company, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO companies (ticker, cik, name, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET cik = excluded.cik, name = excluded.name, fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	ts := fetchedAt.Unix()
	for _, c := range companies {
		ticker := strings.ToUpper(strings.TrimSpace(c.Ticker))
		if ticker == "" || c.CIK == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, ticker, c.CIK, c.Name, ts); err != nil {
			return fmt.Errorf("failed to save %s: %w", ticker, err)
		}
	}
	return tx.Commit()
}

// LoadCompanies returns every row fetched at or after notBefore, plus the
// oldest fetch time among them. An empty result means the cache is cold or stale.
func (s *Storage) LoadCompanies(ctx context.Context, notBefore time.Time) ([]Company, time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, cik, COALESCE(name, ''), fetched_at FROM companies WHERE fetched_at >= ? ORDER BY ticker`,
		notBefore.Unix())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var (
		out    []Company
		oldest int64
	)
	for rows.Next() {
		var (
			c  Company
			ts int64
		)
		if err := rows.Scan(&c.Ticker, &c.CIK, &c.Name, &ts); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan company: %w", err)
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if len(out) == 0 {
		return nil, time.Time{}, nil
	}
	return out, time.Unix(oldest, 0).UTC(), nil
}

// Prune deletes rows fetched before cutoff and reports how many were removed.
func (s *Storage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune companies: %w", err)
	}
	return res.RowsAffected()
}
