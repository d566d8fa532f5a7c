package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/quillpost/server/internal/model"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// translate maps driver errors onto the model error kinds. what names the
// entity in the user-facing message ("user", "blog").
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return model.WrapError(model.ErrNotFound, what+" not found", err)
	case isUniqueViolation(err):
		return model.WrapError(model.ErrConflict, what+" already exists", err)
	}
	return fmt.Errorf("%s query: %w", what, err)
}

// expectOne turns a zero-row UPDATE/DELETE into NotFound.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return model.NotFound(what + " not found")
	}
	return nil
}
