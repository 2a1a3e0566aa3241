package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-trader/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Executed legs, one row per fill
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		strategy TEXT,
		sector TEXT,
		confidence REAL,
		risk_amount REAL,
		is_paper INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per strategy run, successful or not
	CREATE TABLE IF NOT EXISTS selections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		underlying TEXT NOT NULL,
		strategy TEXT NOT NULL,
		confidence REAL,
		state TEXT,
		reason TEXT,
		success INTEGER NOT NULL,
		error_code TEXT,
		fallback_from TEXT,
		lots INTEGER,
		premium REAL,
		failed_legs TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, timestamp);
	CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy, timestamp);
	CREATE INDEX IF NOT EXISTS idx_selections_underlying ON selections(underlying, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTrade records one executed leg.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, timestamp, symbol, side, quantity, price, strategy, sector, confidence, risk_amount, is_paper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.Timestamp, trade.Symbol, string(trade.Side), trade.Quantity,
		trade.Price, trade.Strategy, trade.Sector, trade.Confidence, trade.RiskAmount,
		boolToInt(trade.IsPaper))
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// GetTrades returns trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error) {
	query := `SELECT id, timestamp, symbol, side, quantity, price, strategy, sector, confidence, risk_amount, is_paper
		FROM trades WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}
	if !filter.From.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.To)
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		var side string
		var isPaper int
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &side, &t.Quantity, &t.Price,
			&t.Strategy, &t.Sector, &t.Confidence, &t.RiskAmount, &isPaper); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Side = models.OrderSide(side)
		t.IsPaper = isPaper != 0
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveSelection records the outcome of one strategy run.
func (s *SQLiteStore) SaveSelection(ctx context.Context, rec *SelectionRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO selections (timestamp, underlying, strategy, confidence, state, reason, success, error_code, fallback_from, lots, premium, failed_legs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Underlying, rec.Strategy, rec.Confidence, rec.State, rec.Reason,
		boolToInt(rec.Success), rec.ErrorCode, rec.FallbackFrom, rec.Lots, rec.Premium,
		strings.Join(rec.FailedLegs, ","))
	if err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// GetSelections returns the most recent selection outcomes.
func (s *SQLiteStore) GetSelections(ctx context.Context, limit int) ([]SelectionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, underlying, strategy, confidence, state, reason, success, error_code, fallback_from, lots, premium, failed_legs
		FROM selections ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	var recs []SelectionRecord
	for rows.Next() {
		var r SelectionRecord
		var success int
		var failedLegs string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Underlying, &r.Strategy, &r.Confidence,
			&r.State, &r.Reason, &success, &r.ErrorCode, &r.FallbackFrom, &r.Lots,
			&r.Premium, &failedLegs); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		r.Success = success != 0
		if failedLegs != "" {
			r.FailedLegs = strings.Split(failedLegs, ",")
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
