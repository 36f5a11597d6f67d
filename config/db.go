package config

import (
	"fmt"

	"gorm.io/driver/postgres"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (db *DB) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		db.HOST, db.USER, db.PASSWORD, db.NAME, db.PORT, db.SSLMODE,
	)
}

// GormConnect opens the shared connection pool used by every consumer
// goroutine of the process.
func (db *DB) GormConnect() (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(db.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(db.MaxOpenConns)
	sqlDB.SetMaxIdleConns(db.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(db.ConnMaxLifetime)

	return conn, nil
}
