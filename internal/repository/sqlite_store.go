// Package repository persists conversation turns and topic counts in SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hr-assistant/internal/domain"
)

// Store wraps a SQLite database holding the append-only conversation log
// and the derived topic counters.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dsn and applies migrations.
func NewStore(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("repository: dsn must not be empty")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}

	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection so schema and data survive across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: migrate database: %w", err)
	}
	return s, nil
}

// migrate creates the schema and upgrades pre-existing databases in place.
// Older deployments predate the conversation_id column; it is added
// non-destructively and existing rows keep a NULL value.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id TEXT NOT NULL,
			employee_name TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			summary TEXT,
			topic TEXT,
			date_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE,
			count INTEGER DEFAULT 0
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	hasConvID, err := s.hasColumn("conversations", "conversation_id")
	if err != nil {
		return err
	}
	if !hasConvID {
		if _, err := s.db.Exec(`ALTER TABLE conversations ADD COLUMN conversation_id TEXT`); err != nil {
			return fmt.Errorf("add conversation_id column: %w", err)
		}
	}
	return nil
}

func (s *Store) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTurn appends one conversation turn and bumps the matching topic
// counter in a single transaction; either both commit or neither does.
// A missing ConversationID is synthesized from the employee id and the
// turn timestamp; a missing Timestamp is assigned at write time. Returns
// the new row id.
func (s *Store) SaveTurn(ctx context.Context, turn domain.ConversationTurn) (int64, error) {
	if strings.TrimSpace(turn.EmployeeID) == "" {
		return 0, errors.New("repository: SaveTurn: employee id is required")
	}
	if strings.TrimSpace(turn.Question) == "" {
		return 0, errors.New("repository: SaveTurn: question is required")
	}

	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	convID := strings.TrimSpace(turn.ConversationID)
	if convID == "" {
		convID = domain.SynthesizeConversationID(turn.EmployeeID, ts)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("repository: SaveTurn: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO conversations
		(employee_id, employee_name, question, answer, summary, topic, date_time, conversation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.EmployeeID, turn.EmployeeName, turn.Question, turn.Answer,
		turn.Summary, turn.Topic, ts.Format("2006-01-02 15:04:05"), convID)
	if err != nil {
		return 0, fmt.Errorf("repository: SaveTurn: insert conversation: %w", err)
	}

	if turn.Topic != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO topics (name, count) VALUES (?, 1)
			ON CONFLICT(name) DO UPDATE SET count = count + 1`,
			turn.Topic); err != nil {
			return 0, fmt.Errorf("repository: SaveTurn: upsert topic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("repository: SaveTurn: commit: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("repository: SaveTurn: last insert id: %w", err)
	}
	return id, nil
}

// EmployeeTurns returns the most recent persisted turns for one employee,
// newest first.
func (s *Store) EmployeeTurns(ctx context.Context, employeeID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, employee_name, question, answer, summary, topic, date_time, conversation_id
		FROM conversations WHERE employee_id = ? ORDER BY date_time DESC, id DESC LIMIT ?`,
		employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: EmployeeTurns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// RecentTurns returns the most recent persisted turns across all employees,
// newest first.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, employee_name, question, answer, summary, topic, date_time, conversation_id
		FROM conversations ORDER BY date_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: RecentTurns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// TopicCounts returns every topic counter, highest count first.
func (s *Store) TopicCounts(ctx context.Context) ([]domain.TopicCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, count FROM topics ORDER BY count DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("repository: TopicCounts: %w", err)
	}
	defer rows.Close()

	var out []domain.TopicCount
	for rows.Next() {
		var tc domain.TopicCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("repository: TopicCounts scan: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func scanTurns(rows *sql.Rows) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	for rows.Next() {
		var (
			turn     domain.ConversationTurn
			summary  sql.NullString
			topic    sql.NullString
			dateTime string
			convID   sql.NullString
		)
		if err := rows.Scan(&turn.ID, &turn.EmployeeID, &turn.EmployeeName,
			&turn.Question, &turn.Answer, &summary, &topic, &dateTime, &convID); err != nil {
			return nil, fmt.Errorf("repository: scan turn: %w", err)
		}
		turn.Summary = summary.String
		turn.Topic = topic.String
		turn.ConversationID = convID.String
		if ts, err := time.Parse("2006-01-02 15:04:05", dateTime); err == nil {
			turn.Timestamp = ts
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}
