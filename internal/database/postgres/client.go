package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenGorm оборачивает уже открытое соединение в *gorm.DB, чтобы sqlx и GORM делили один пул
func OpenGorm(conn *sql.DB, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: conn}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации GORM: %w", err)
	}
	logger.Info("GORM initialized over existing PostgreSQL connection")
	return db, nil
}
