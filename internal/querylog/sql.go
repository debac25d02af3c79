package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/dbutil"
)

const queryLogTable = "query_log"

var createTableSQL = map[string]string{
	dbutil.DriverSQLite: `CREATE TABLE IF NOT EXISTS query_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	ctime BIGINT NOT NULL
)`,
	dbutil.DriverPostgres: `CREATE TABLE IF NOT EXISTS query_log (
	id BIGSERIAL PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	ctime BIGINT NOT NULL
)`,
}

type sqlConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type sqlStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens dsn with driver ("sqlite" or "postgres") and creates the
// query_log table when missing.
func NewSQLStore(ctx context.Context, driver, dsn string) (Store, error) {
	ddl, ok := createTableSQL[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported query log driver: %s", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open query log db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping query log db: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create query log table: %w", err)
	}
	return &sqlStore{db: db, driver: driver}, nil
}

func (s *sqlStore) Type() string {
	return "sql"
}

func (s *sqlStore) Append(ctx context.Context, query, response string) error {
	data := map[string]interface{}{
		"question": query,
		"answer":   response,
		"ctime":    time.Now().UnixMilli(),
	}
	sqlStr, args, err := builder.BuildInsert(queryLogTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(s.driver, sqlStr, args)
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

func (s *sqlStore) List(ctx context.Context) ([]model.QueryLogEntry, error) {
	where := map[string]interface{}{"_orderby": "id asc"}
	sqlStr, args, err := builder.BuildSelect(queryLogTable, where, []string{"question", "answer"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(s.driver, sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select query log: %w", err)
	}
	defer rows.Close()
	entries := make([]model.QueryLogEntry, 0)
	for rows.Next() {
		var item model.QueryLogEntry
		if err := rows.Scan(&item.Query, &item.Response); err != nil {
			return nil, err
		}
		entries = append(entries, item)
	}
	return entries, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func createSQLStore(args interface{}) (Store, error) {
	cfg := &sqlConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = dbutil.DriverSQLite
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("query log dsn is required")
	}
	return NewSQLStore(context.Background(), driver, cfg.DSN)
}

func init() {
	Register("sql", createSQLStore)
}
