package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/tkoester/knowbridge/internal/model"
)

// SQLiteStore implements Store using SQLite with an FTS5 index over chunk
// text.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newAuditID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		source     TEXT NOT NULL,
		title      TEXT,
		text       TEXT NOT NULL,
		meta_json  TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_source_created ON chunks(source, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_chunks_title ON chunks(title);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		text,
		content=chunks,
		content_rowid=id
	);

	CREATE TABLE IF NOT EXISTS tags (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS chunk_tags (
		chunk_id INTEGER NOT NULL REFERENCES chunks(id) ON DELETE CASCADE,
		tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (chunk_id, tag_id)
	);
	CREATE INDEX IF NOT EXISTS idx_chunk_tags_tag ON chunk_tags(tag_id);

	CREATE TABLE IF NOT EXISTS sessions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_kind_created ON sessions(kind, created_at DESC);

	CREATE TABLE IF NOT EXISTS audits (
		id           TEXT PRIMARY KEY,
		action       TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		result_json  TEXT NOT NULL,
		mood         TEXT,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audits_action_created ON audits(action, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
		INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
		INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.id, old.text);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
		INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.id, old.text);
		INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
	END`)

	return nil
}

func (s *SQLiteStore) InsertChunk(ctx context.Context, p InsertChunkParams) (int64, error) {
	ids, err := s.InsertChunks(ctx, []InsertChunkParams{p})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *SQLiteStore) InsertChunks(ctx context.Context, params []InsertChunkParams) ([]int64, error) {
	if len(params) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]int64, 0, len(params))
	for _, p := range params {
		var metaPtr *string
		if p.Meta != nil {
			b, err := json.Marshal(p.Meta)
			if err != nil {
				return nil, fmt.Errorf("marshal meta: %w", err)
			}
			m := string(b)
			metaPtr = &m
		}
		var titlePtr *string
		if p.Title != "" {
			titlePtr = &p.Title
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (source, title, text, meta_json, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.Source, titlePtr, p.Text, metaPtr, now)
		if err != nil {
			return nil, fmt.Errorf("insert chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLiteStore) GetChunk(ctx context.Context, id int64) (*model.Chunk, error) {
	var c model.Chunk
	var title, metaJSON sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, title, text, meta_json, created_at FROM chunks WHERE id = ?`, id).
		Scan(&c.ID, &c.Source, &title, &c.Text, &metaJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if title.Valid {
		c.Title = title.String
	}
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &c.Meta)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (s *SQLiteStore) AllChunkTexts(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text FROM chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	texts := map[int64]string{}
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, err
		}
		texts[id] = text
	}
	return texts, rows.Err()
}

func (s *SQLiteStore) UpsertTag(ctx context.Context, name string) (int64, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO tags(name) VALUES (?)`, name); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStore) LinkChunkTag(ctx context.Context, chunkID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chunk_tags(chunk_id, tag_id) VALUES (?, ?)`, chunkID, tagID)
	return err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, kind string, state map[string]any) (int64, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("marshal state: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(kind, state_json, created_at) VALUES (?, ?, ?)`, kind, string(b), now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetSessionState(ctx context.Context, id int64) (map[string]any, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM sessions WHERE id = ?`, id).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

func (s *SQLiteStore) UpdateSessionState(ctx context.Context, id int64, state map[string]any) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET state_json = ? WHERE id = ?`, string(b), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendAudit(ctx context.Context, p AuditParams) error {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	result, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("marshal audit result: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audits(id, action, payload_json, result_json, mood, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.newAuditID(), p.Action, string(payload), string(result), p.Mood, now)
	return err
}

func (s *SQLiteStore) RecentAudits(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, payload_json, result_json, mood, created_at
		 FROM audits ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var r model.AuditRecord
		var payload, result string
		var mood sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Action, &payload, &result, &mood, &createdAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(payload), &r.Payload)
		json.Unmarshal([]byte(result), &r.Result)
		if mood.Valid {
			r.Mood = mood.String
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
