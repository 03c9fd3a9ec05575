package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

// ErrConflict marks a write that collided with an existing row.
var ErrConflict = errors.New("conflict")

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%s: %w: %v", op, ErrConflict, err) // unique_violation
		case "23503":
			return fmt.Errorf("%s: %w: %v", op, apperr.ErrNotFound, err) // foreign_key_violation
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
