// Package repository holds the MySQL persistence layer. Every repository
// receives the process-wide *sql.DB from main; none keeps global state.
//
// Missing rows surface as apperrors.ErrNotFound so higher layers never test
// for sql.ErrNoRows directly.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/rental-booking/internal/apperrors"
)

// ErrEmailExists is returned by UserRepo.Create when the email is taken.
var ErrEmailExists = fmt.Errorf("%w: email already exists", apperrors.ErrConflict)

// ErrSubjectExists is returned by UserRepo.Create when the provider subject
// already has an account.
var ErrSubjectExists = fmt.Errorf("%w: provider subject already exists", apperrors.ErrConflict)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// duplicateKey returns the server's ER_DUP_ENTRY message, which names the
// violated unique key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message, true
	}
	return "", false
}

// notFound maps sql.ErrNoRows to a NotFound app error for resource.
func notFound(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource)
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	switch {
	case p.Limit <= 0:
		p.Limit = 20
	case p.Limit > 100:
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
