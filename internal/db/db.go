package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite best practice for embedded use
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := &DB{sql: sqldb}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bot_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_docs (
			user_id INTEGER NOT NULL,
			field TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, field)
		);`,
		`CREATE TABLE IF NOT EXISTS admins (
			user_id INTEGER PRIMARY KEY,
			is_super INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := d.sql.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings returns the full persisted key-value map.
func (d *DB) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT key,value FROM bot_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SaveSettings upserts the given keys as a single transaction.
func (d *DB) SaveSettings(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bot_settings(key,value,updated_at) VALUES(?,?,?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
			k, kv[k], now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) DeleteSettings(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bot_settings WHERE key=?`, k); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) SetUserDoc(ctx context.Context, userID int64, field string, value []byte) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO user_docs(user_id,field,value,updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(user_id,field) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		userID, field, value, time.Now().Unix())
	return err
}

func (d *DB) GetUserDoc(ctx context.Context, userID int64, field string) ([]byte, bool, error) {
	var v []byte
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM user_docs WHERE user_id=? AND field=?`, userID, field).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (d *DB) DeleteUserDoc(ctx context.Context, userID int64, field string) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM user_docs WHERE user_id=? AND field=?`, userID, field)
	return err
}

// DeleteUserDocField removes the field from every user document. Used when a
// cached per-user artifact (thumbnail, watermark image) must be invalidated
// globally after the owning setting changed.
func (d *DB) DeleteUserDocField(ctx context.Context, field string) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM user_docs WHERE field=?`, field)
	return err
}

func (d *DB) AdminCount(ctx context.Context) (int, error) {
	var c int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM admins`).Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (d *DB) IsAdmin(ctx context.Context, userID int64) (bool, bool, error) {
	var isSuper int
	err := d.sql.QueryRowContext(ctx, `SELECT is_super FROM admins WHERE user_id=?`, userID).Scan(&isSuper)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, isSuper == 1, nil
}

func (d *DB) AddAdmin(ctx context.Context, userID int64, super bool) error {
	isSuper := 0
	if super {
		isSuper = 1
	}
	_, err := d.sql.ExecContext(ctx, `INSERT OR REPLACE INTO admins(user_id,is_super,created_at) VALUES(?,?,?)`, userID, isSuper, time.Now().Unix())
	return err
}

func (d *DB) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM admins WHERE user_id=?`, userID)
	return err
}

type Admin struct {
	UserID  int64
	IsSuper bool
}

func (d *DB) ListAdmins(ctx context.Context) ([]Admin, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT user_id,is_super FROM admins ORDER BY is_super DESC, user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Admin
	for rows.Next() {
		var a Admin
		var isSuper int
		if err := rows.Scan(&a.UserID, &isSuper); err != nil {
			return nil, err
		}
		a.IsSuper = isSuper == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

// SeedAdmins registers the configured owner ids on first boot only.
func (d *DB) SeedAdmins(ctx context.Context, ownerIDs []int64) error {
	count, err := d.AdminCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 || len(ownerIDs) == 0 {
		return nil
	}
	for i, id := range ownerIDs {
		if err := d.AddAdmin(ctx, id, i == 0); err != nil {
			return err
		}
	}
	return nil
}
