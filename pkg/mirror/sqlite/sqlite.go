// Package sqlite is a mirror.Mirror backed by a local SQLite database. Each
// data row is stored as a JSON array of cells, positioned by its row index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/harrisonrobin/plannersync/pkg/colors"
	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/mirror/sqlite/migrations"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

// MirrorConfig is the configuration for the SQLite mirror.
type MirrorConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *MirrorConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "mirror.SQLite"})
	return nil
}

// Mirror is a SQLite implementation of mirror.Mirror.
type Mirror struct {
	db     *sql.DB
	logger log.Logger
}

// NewMirror opens (creating if needed) the database at cfg.DBPath and applies
// the schema.
func NewMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite mirror initialized at %s", cfg.DBPath)
	return &Mirror{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (m *Mirror) Close() error { return m.db.Close() }

func (m *Mirror) ReadHeader(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM mirror_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("could not query columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("could not scan column: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return cols, nil
}

func (m *Mirror) ReadRows(ctx context.Context) ([][]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT cells FROM mirror_rows ORDER BY row_index`)
	if err != nil {
		return nil, fmt.Errorf("could not query rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	last := len(out)
	for last > 0 && emptyRow(out[last-1]) {
		last--
	}
	return out[:last], nil
}

func (m *Mirror) ReplaceHeader(ctx context.Context, columns []string) error {
	return m.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mirror_columns`); err != nil {
			return fmt.Errorf("could not clear columns: %w", err)
		}
		for i, c := range columns {
			if _, err := tx.ExecContext(ctx, `INSERT INTO mirror_columns (position, name) VALUES (?, ?)`, i, c); err != nil {
				return fmt.Errorf("could not insert column %q: %w", c, err)
			}
		}
		return nil
	})
}

func (m *Mirror) ReplaceData(ctx context.Context, data [][]string) error {
	err := m.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mirror_rows`); err != nil {
			return fmt.Errorf("could not clear rows: %w", err)
		}
		for i, cells := range data {
			raw, err := encodeCells(cells)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO mirror_rows (row_index, cells, color) VALUES (?, ?, NULL)`, i, raw); err != nil {
				return fmt.Errorf("could not insert row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debugf("replaced mirror data with %d rows", len(data))
	return nil
}

func (m *Mirror) SetRowColor(ctx context.Context, row int, color colors.RGB) error {
	var hex any
	if color != colors.Clear {
		hex = color.Hex()
	}

	res, err := m.db.ExecContext(ctx, `UPDATE mirror_rows SET color = ? WHERE row_index = ?`, hex, row)
	if err != nil {
		return fmt.Errorf("could not set color of row %d: %w", row, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("row %d out of range: %w", row, model.ErrNotValid)
	}
	return nil
}

func (m *Mirror) SetCell(ctx context.Context, column string, row int, value string) error {
	return m.tx(ctx, func(tx *sql.Tx) error {
		var col int
		err := tx.QueryRowContext(ctx, `SELECT position FROM mirror_columns WHERE trim(name) = ? ORDER BY position LIMIT 1`, column).Scan(&col)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("column %q: %w", column, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not query column %q: %w", column, err)
		}

		var raw string
		err = tx.QueryRowContext(ctx, `SELECT cells FROM mirror_rows WHERE row_index = ?`, row).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("row %d out of range: %w", row, model.ErrNotValid)
		}
		if err != nil {
			return fmt.Errorf("could not query row %d: %w", row, err)
		}

		cells, err := decodeCells(raw)
		if err != nil {
			return err
		}
		for len(cells) <= col {
			cells = append(cells, "")
		}
		cells[col] = value

		raw, err = encodeCells(cells)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE mirror_rows SET cells = ? WHERE row_index = ?`, raw, row); err != nil {
			return fmt.Errorf("could not update row %d: %w", row, err)
		}
		return nil
	})
}

// Colors returns the highlighted rows. Cleared rows are absent.
func (m *Mirror) Colors(ctx context.Context) (map[int]colors.RGB, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT row_index, color FROM mirror_rows WHERE color IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("could not query colors: %w", err)
	}
	defer rows.Close()

	out := make(map[int]colors.RGB)
	for rows.Next() {
		var (
			row int
			hex string
			c   colors.RGB
		)
		if err := rows.Scan(&row, &hex); err != nil {
			return nil, fmt.Errorf("could not scan color: %w", err)
		}
		if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return nil, fmt.Errorf("invalid color %q on row %d: %w", hex, row, err)
		}
		out[row] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating colors: %w", err)
	}
	return out, nil
}

func (m *Mirror) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("could not encode cells: %w", err)
	}
	return string(b), nil
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("could not decode cells: %w", err)
	}
	return cells, nil
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
