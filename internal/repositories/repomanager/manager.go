package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cardkeep/internal/dbx"
	"github.com/dmitrijs2005/cardkeep/internal/repositories/metadata"
	"github.com/dmitrijs2005/cardkeep/internal/repositories/sessions"
	"github.com/dmitrijs2005/cardkeep/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code path
// works on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}
