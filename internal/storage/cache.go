// Package storage provides the per-file result cache.
//
// Extraction results are keyed by (path, content digest); a hit skips
// preprocessing, parsing, and collection for that file. Payloads are
// JSON-encoded module records compressed with zstd.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"svinv/internal/extractor"
	"svinv/internal/logging"
)

// Cache is a SQLite-backed lookaside cache of per-file module records.
type Cache struct {
	conn    *sql.DB
	logger  *logging.Logger
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the cache database under dir (e.g. ".svinv").
func Open(dir string, logger *logging.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "cache.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds on lock
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS file_results (
		path       TEXT NOT NULL,
		digest     TEXT NOT NULL,
		payload    BLOB NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (path, digest)
	)`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Cache{
		conn:    conn,
		logger:  logger,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return c.conn.Close()
}

// Digest computes the content digest used as a cache key component.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached module records for (path, digest), if present.
func (c *Cache) Get(path, digest string) ([]extractor.Module, bool, error) {
	var payload []byte
	err := c.conn.QueryRow(
		"SELECT payload FROM file_results WHERE path = ? AND digest = ?",
		path, digest,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	raw, err := c.decoder.DecodeAll(payload, nil)
	if err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		c.logger.Warn("Discarding corrupt cache entry", map[string]interface{}{
			"path": path,
		})
		return nil, false, nil
	}

	var modules []extractor.Module
	if err := json.Unmarshal(raw, &modules); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", map[string]interface{}{
			"path": path,
		})
		return nil, false, nil
	}
	return modules, true, nil
}

// Put stores the module records for (path, digest), replacing any previous
// entry for the same path.
func (c *Cache) Put(path, digest string, modules []extractor.Module) error {
	raw, err := json.Marshal(modules)
	if err != nil {
		return err
	}
	payload := c.encoder.EncodeAll(raw, nil)

	// One entry per path: stale digests for the same file are dropped.
	if _, err := c.conn.Exec("DELETE FROM file_results WHERE path = ?", path); err != nil {
		return fmt.Errorf("cache eviction failed: %w", err)
	}
	_, err = c.conn.Exec(
		"INSERT INTO file_results (path, digest, payload, created_at) VALUES (?, ?, ?, ?)",
		path, digest, payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cache insert failed: %w", err)
	}
	return nil
}

// Stats reports the number of entries and total payload bytes.
func (c *Cache) Stats() (entries int, payloadBytes int64, err error) {
	err = c.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0) FROM file_results",
	).Scan(&entries, &payloadBytes)
	if err != nil {
		return 0, 0, fmt.Errorf("cache stats failed: %w", err)
	}
	return entries, payloadBytes, nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if _, err := c.conn.Exec("DELETE FROM file_results"); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	return nil
}
