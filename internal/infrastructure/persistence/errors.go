package persistence

import (
	"errors"

	"github.com/lib/pq"
	"github.com/procura/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres error codes not translated by GORM
const (
	pgCheckViolation = "23514"
	pgDeadlock       = "40P01"
)

// ErrDeadlock signals that Postgres chose this transaction as a deadlock
// victim. Callers may retry the whole transaction.
var ErrDeadlock = shared.NewDomainError("TRANSACTION_CONFLICT", "Transaction conflicted with a concurrent operation, retry the request")

// translateError maps driver and GORM errors onto domain errors so that
// callers never branch on storage internals. Unknown errors pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewDomainError("INVALID_REFERENCE", "Referenced entity does not exist")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgDeadlock:
			return ErrDeadlock
		case pgCheckViolation:
			return shared.NewDomainError("CONSTRAINT_VIOLATION", "Value rejected by a database constraint")
		}
	}

	return err
}
