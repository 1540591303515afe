package defsql

import (
	"context"
	"database/sql"
)

// stmtCache wraps a *sql.Tx and caches prepared statements so that the
// thousands of element and code inserts in a specification build avoid
// re-parsing the SQL on every call.
type stmtCache struct {
	tx    *sql.Tx
	cache map[string]*sql.Stmt
}

func newStmtCache(tx *sql.Tx) *stmtCache {
	return &stmtCache{tx: tx, cache: make(map[string]*sql.Stmt)}
}

func (c *stmtCache) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if s, ok := c.cache[query]; ok {
		return s, nil
	}
	s, err := c.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache[query] = s
	return s, nil
}

// insert executes an INSERT and returns the new row's id.
func (c *stmtCache) insert(ctx context.Context, query string, args ...any) (int64, error) {
	s, err := c.stmt(ctx, query)
	if err != nil {
		return 0, err
	}
	res, err := s.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (c *stmtCache) close() {
	for _, s := range c.cache {
		s.Close()
	}
}
