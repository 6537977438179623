package postgresql

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectInterval = 2 * time.Second
)

// Options tunes the connection pool and gorm's own query logging
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     logger.LogLevel
}

// Initialize opens the db session, retrying a few times, and auto migrates
// the given models
func Initialize(connStr string, opts Options, models []any) (db *gorm.DB, err error) {
	retryTicker := time.NewTicker(connectInterval)
	defer retryTicker.Stop()

	gormConf := &gorm.Config{}
	if opts.LogLevel != 0 {
		gormConf.Logger = logger.Default.LogMode(opts.LogLevel)
	}

	for attempt := range connectAttempts {
		db, err = gorm.Open(postgres.Open(connStr), gormConf)
		if err == nil || attempt == connectAttempts-1 {
			break
		}
		<-retryTicker.C
	}
	if err != nil {
		return
	}

	sqlDb, err := db.DB()
	if err != nil {
		return
	}
	if opts.MaxOpenConns > 0 {
		sqlDb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDb.SetMaxIdleConns(opts.MaxIdleConns)
	}

	err = db.AutoMigrate(models...)

	return
}

func Close(db *gorm.DB) error {
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDb.Close()
}
