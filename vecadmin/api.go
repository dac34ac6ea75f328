package vecadmin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/vecdb/vector"
	"modernc.org/sqlite/vtab"
)

const (
	// ModuleName is the virtual table module name.
	ModuleName = "vec_admin"

	// OpVerify checks that every stored embedding blob has the expected size.
	OpVerify = "verify"
	// OpModel reports the model identifier recorded in the metadata table.
	OpModel = "model"
	// OpCount reports the number of stored embeddings.
	OpCount = "count"
)

// ErrUnavailable is returned by Run when the driver lacks virtual table
// support.
var ErrUnavailable = errors.New("vec_admin: virtual table module not available")

// Module provides administrative operations via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE vec_admin USING vec_admin(op);
//	SELECT op FROM vec_admin WHERE op MATCH 'verify';
//
// 'verify' returns 'ok:<count>' when all embeddings are well formed, or one
// 'invalid:<id>:<bytes>' row per malformed embedding. 'model' returns the
// stored model identifier and 'count' returns 'count:<n>'.
type Module struct {
	db  *sql.DB
	dim int
}

// Table is a vec_admin virtual table instance.
type Table struct {
	db  *sql.DB
	dim int
}

// Cursor iterates over the result rows of one admin operation.
type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

// Register registers the vec_admin module on db for embeddings of
// vector.Dimension components.
func Register(db *sql.DB) error {
	if err := vtab.RegisterModule(db, ModuleName, &Module{db: db, dim: vector.Dimension}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("vec_admin: need at least 3 args")
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op)", args[2])); err != nil {
		return nil, err
	}
	return &Table{db: m.db, dim: m.dim}, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 1
			info.IdxNum = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error          { return nil }
func (t *Table) Destroy() error             { return nil }

func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	op, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("vec_admin: MATCH expects an operation name as TEXT")
	}
	rows, err := execute(context.Background(), c.table.db, c.table.dim, op)
	if err != nil {
		return err
	}
	c.rows = rows
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("vec_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}

func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }

func (c *Cursor) Close() error {
	c.rows = nil
	c.pos = 0
	return nil
}

func execute(ctx context.Context, db *sql.DB, dim int, op string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case OpVerify:
		return Verify(ctx, db, dim)
	case OpModel:
		var model sql.NullString
		err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, vector.ModelKey).Scan(&model)
		if errors.Is(err, sql.ErrNoRows) {
			return []string{""}, nil
		}
		if err != nil {
			return nil, err
		}
		return []string{model.String}, nil
	case OpCount:
		var n int64
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("count:%d", n)}, nil
	default:
		return nil, fmt.Errorf("vec_admin: unsupported operation %q", op)
	}
}

// Verify scans the embeddings table and reports rows whose blob is not
// exactly dim float32 values.
func Verify(ctx context.Context, db *sql.DB, dim int) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, LENGTH(embedding) FROM embeddings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invalid []string
	total := 0
	for rows.Next() {
		var id string
		var size sql.NullInt64
		if err := rows.Scan(&id, &size); err != nil {
			return nil, err
		}
		total++
		if size.Int64 != int64(dim*4) {
			invalid = append(invalid, fmt.Sprintf("invalid:%s:%d", id, size.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(invalid) > 0 {
		return invalid, nil
	}
	return []string{fmt.Sprintf("ok:%d", total)}, nil
}

// Run registers the module, creates a connection-scoped vec_admin table in
// the temp schema and executes op through it. The table is dropped before
// the connection returns to the pool, so the store file never references
// the module.
func Run(ctx context.Context, db *sql.DB, op string) ([]string, error) {
	if err := Register(db); err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, `CREATE VIRTUAL TABLE IF NOT EXISTS temp.vec_admin USING vec_admin(op)`); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `DROP TABLE IF EXISTS temp.vec_admin`)
	}()
	rows, err := conn.QueryContext(ctx, `SELECT op FROM temp.vec_admin WHERE op MATCH ?`, op)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
