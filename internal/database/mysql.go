package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"lovealbum/entity"
	"lovealbum/internal/config"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

const (
	tableCodes  = "access_codes"
	tableAlbums = "albums"
)

// MySql stores codes as rows and albums as JSON documents keyed by id.
type MySql struct {
	db     *sql.DB
	prefix string
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.MySQL.Enabled {
		return nil, fmt.Errorf("mysql client is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		conf.MySQL.UserName, conf.MySQL.Password, conf.MySQL.HostName, conf.MySQL.Port, conf.MySQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// wait for a database to start: three pings, 5 seconds apart
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(5 * time.Second)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:     db,
		prefix: conf.MySQL.Prefix,
	}
	if err = sdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) table(name string) string {
	return s.prefix + name
}

func (s *MySql) createTables(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			code VARCHAR(64) NOT NULL,
			used TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME(3) NOT NULL,
			first_used_at DATETIME(3) NULL,
			expires_at DATETIME(3) NULL,
			INDEX idx_code (code)
		)`, s.table(tableCodes)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			document LONGTEXT NOT NULL,
			updated_at DATETIME(3) NOT NULL
		)`, s.table(tableAlbums)),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *MySql) Close() {
	_ = s.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*entity.AccessCode, error) {
	var ac entity.AccessCode
	var firstUsedAt, expiresAt sql.NullTime
	if err := row.Scan(&ac.Code, &ac.Used, &ac.CreatedAt, &firstUsedAt, &expiresAt); err != nil {
		return nil, err
	}
	if firstUsedAt.Valid {
		ac.FirstUsedAt = firstUsedAt.Time
	}
	if expiresAt.Valid {
		ac.ExpiresAt = expiresAt.Time
	}
	return &ac, nil
}

func (s *MySql) Codes(ctx context.Context) ([]*entity.AccessCode, error) {
	query := fmt.Sprintf(`SELECT code, used, created_at, first_used_at, expires_at FROM %s ORDER BY id`, s.table(tableCodes))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select codes: %w", err)
	}
	defer rows.Close()

	codes := make([]*entity.AccessCode, 0)
	for rows.Next() {
		ac, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, ac)
	}
	return codes, rows.Err()
}

func (s *MySql) FindCode(ctx context.Context, code string) (*entity.AccessCode, error) {
	query := fmt.Sprintf(`SELECT code, used, created_at, first_used_at, expires_at FROM %s WHERE code = ? ORDER BY id LIMIT 1`, s.table(tableCodes))
	ac, err := scanCode(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select code: %w", err)
	}
	return ac, nil
}

func (s *MySql) InsertCode(ctx context.Context, code *entity.AccessCode) error {
	query := fmt.Sprintf(`INSERT INTO %s (code, used, created_at, first_used_at, expires_at) VALUES (?, ?, ?, ?, ?)`, s.table(tableCodes))
	_, err := s.db.ExecContext(ctx, query,
		code.Code,
		code.Used,
		code.CreatedAt.UTC(),
		nullTime(code.FirstUsedAt.UTC()),
		nullTime(code.ExpiresAt.UTC()),
	)
	if err != nil {
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}

func (s *MySql) UpdateCode(ctx context.Context, code *entity.AccessCode) error {
	query := fmt.Sprintf(`UPDATE %s SET used = ?, first_used_at = ?, expires_at = ? WHERE code = ? ORDER BY id LIMIT 1`, s.table(tableCodes))
	result, err := s.db.ExecContext(ctx, query,
		code.Used,
		nullTime(code.FirstUsedAt.UTC()),
		nullTime(code.ExpiresAt.UTC()),
		code.Code,
	)
	if err != nil {
		return fmt.Errorf("update code: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		// MySQL reports 0 for unchanged rows too; tell them apart by existence
		existing, ferr := s.FindCode(ctx, code.Code)
		if ferr != nil {
			return ferr
		}
		if existing == nil {
			return entity.ErrCodeNotFound
		}
	}
	return nil
}

func (s *MySql) DeleteCode(ctx context.Context, code string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE code = ?`, s.table(tableCodes))
	if _, err := s.db.ExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

func (s *MySql) GetAlbum(ctx context.Context, id string) (*entity.Album, error) {
	query := fmt.Sprintf(`SELECT document FROM %s WHERE id = ?`, s.table(tableAlbums))
	var document string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select album: %w", err)
	}
	var album entity.Album
	if err = json.Unmarshal([]byte(document), &album); err != nil {
		return nil, fmt.Errorf("decode album %s: %w", id, err)
	}
	if album.Blocks == nil {
		album.Blocks = []*entity.Block{}
	}
	return &album, nil
}

func (s *MySql) SaveAlbum(ctx context.Context, album *entity.Album) error {
	document, err := json.Marshal(album)
	if err != nil {
		return fmt.Errorf("encode album: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, document, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE document = VALUES(document), updated_at = VALUES(updated_at)`, s.table(tableAlbums))
	if _, err = s.db.ExecContext(ctx, query, album.ID, string(document), time.Now().UTC()); err != nil {
		return fmt.Errorf("save album: %w", err)
	}
	return nil
}

func (s *MySql) DeleteAlbum(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table(tableAlbums))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	return nil
}
