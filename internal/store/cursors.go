package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetCursor returns the last successful cursor for a source, or "" when
// the source has never completed a fetch.
func (s *Store) GetCursor(ctx context.Context, source string) (string, error) {
	var cursor string
	err := s.db.QueryRowContext(ctx,
		`SELECT cursor FROM cursors WHERE source = ?`, source,
	).Scan(&cursor)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting cursor for %s: %w", source, err)
	}
	return cursor, nil
}

// SetCursor records the cursor to resume the source from next cycle.
func (s *Store) SetCursor(ctx context.Context, source, cursor string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cursors (source, cursor) VALUES (?, ?)
		 ON CONFLICT (source) DO UPDATE SET cursor = excluded.cursor`,
		source, cursor,
	)
	if err != nil {
		return fmt.Errorf("setting cursor for %s: %w", source, err)
	}
	return nil
}
