package migrations

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

// MigrateStore applies every pending migration. dbType is "pgsql" or "sqlite".
func MigrateStore(db *gorm.DB, dbType string) error {
	goose.SetLogger(&logger{})
	goose.SetBaseFS(embedMigrations)

	dialect, err := gooseDialect(dbType)
	if err != nil {
		return err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return goose.Up(sqlDB, "sql")
}

func gooseDialect(dbType string) (string, error) {
	switch dbType {
	case "pgsql":
		return "postgres", nil
	case "sqlite":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

/*
logger implements goose.Logger interface

	type Logger interface {
		Fatalf(format string, v ...interface{})
		Printf(format string, v ...interface{})
	}
*/
type logger struct{}

func (m *logger) Printf(format string, v ...interface{}) {
	zap.S().Named("migrations").Infof(format, v...)
}
func (m *logger) Fatalf(format string, v ...interface{}) {
	zap.S().Named("migrations").Fatalf(format, v...)
}
