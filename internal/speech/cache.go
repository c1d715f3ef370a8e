package speech

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS clips (
	key       TEXT PRIMARY KEY,
	voice     TEXT NOT NULL,
	text      TEXT NOT NULL,
	format    TEXT NOT NULL,
	data      BLOB NOT NULL,
	duration  REAL NOT NULL DEFAULT 0,
	createdAt REAL NOT NULL
)`

// Cache stores synthesized clips in SQLite so identical narration is only
// paid for once.
type Cache struct {
	db     *sql.DB
	next   Synthesizer
	format string
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string, next Synthesizer, format string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Cache{db: db, next: next, format: format}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(voiceID, format, text string) string {
	sum := sha256.Sum256([]byte(voiceID + "\x00" + format + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached clip, or nil on a miss.
func (c *Cache) Lookup(ctx context.Context, text, voiceID string) (*Clip, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT format, data, duration
		FROM clips
		WHERE key = ?
	`, cacheKey(voiceID, c.format, text))

	var clip Clip
	if err := row.Scan(&clip.Format, &clip.Data, &clip.Duration); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan clip: %w", err)
	}
	return &clip, nil
}

// Store records a clip, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, text, voiceID string, clip *Clip) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO clips (key, voice, text, format, data, duration, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, cacheKey(voiceID, c.format, text), voiceID, text, clip.Format, clip.Data, clip.Duration,
		float64(time.Now().UnixNano())/1e9)
	if err != nil {
		return fmt.Errorf("store clip: %w", err)
	}
	return nil
}

func (c *Cache) Synthesize(ctx context.Context, text, voiceID string) (*Clip, error) {
	if clip, err := c.Lookup(ctx, text, voiceID); err != nil || clip != nil {
		return clip, err
	}
	clip, err := c.next.Synthesize(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}
	if err := c.Store(ctx, text, voiceID, clip); err != nil {
		return nil, err
	}
	return clip, nil
}
