package migrations

import (
	"context"
	"database/sql"
	"embed"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// FS carries the migration sources so goose can resolve versions without a
// checkout on disk.
//
//go:embed 0*.go
var FS embed.FS

func openTx(ctx context.Context, tx *sql.Tx) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return gormDB.WithContext(ctx), nil
}
