package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_init.sql
var initSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(initSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS leaderboard;
				DROP TABLE IF EXISTS competition_participants;
				DROP TABLE IF EXISTS competition_results;
				DROP TABLE IF EXISTS competitions;
				DROP TABLE IF EXISTS group_members;
				DROP TABLE IF EXISTS groups;
				DROP TABLE IF EXISTS attempts;
				DROP TABLE IF EXISTS assessments;
			`)
			return err
		},
	)
}
