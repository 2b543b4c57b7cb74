// Package sqlxrepos implements the domain repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"github.com/jmoiron/sqlx"

	"github.com/darasadev/darasa/core"
)

// getExec picks the executor for a repository call: an explicitly provided
// one (e.g. an open transaction) when it supports sqlx extensions, the
// repository's own DB otherwise.
func getExec(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(sqlx.ExtContext); ok {
			return e
		}
	}
	return db
}
