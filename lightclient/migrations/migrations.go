package migrations

import (
	_ "embed"

	"github.com/veilcash/relayer/db"
)

//go:embed lightclient0001.sql
var mig001 string

func RunMigrations(dbPath string) error {
	migrations := []db.Migration{
		{
			ID:  "lightclient0001",
			SQL: mig001,
		},
	}
	return db.RunMigrations(dbPath, migrations)
}
