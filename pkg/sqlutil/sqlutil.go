package sqlutil

import (
	"database/sql"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// NewSQLDB return sql.DB for specified driver and dsn
func NewSQLDB(driver string, dsn string, conf DBConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.L().Error("open dsn fail", zap.String("driver", driver), zap.Any("config", conf), zap.Error(err))
		return nil, cerrors.Wrap(cerrors.ErrMetaOpFail, err, "open")
	}

	ApplyPoolConfig(db, conf)
	return db, nil
}

// ApplyPoolConfig sets the connection pool limits of db.
func ApplyPoolConfig(db *sql.DB, conf DBConfig) {
	db.SetConnMaxIdleTime(conf.ConnMaxIdleTime)
	db.SetConnMaxLifetime(conf.ConnMaxLifeTime)
	db.SetMaxIdleConns(conf.MaxIdleConns)
	db.SetMaxOpenConns(conf.MaxOpenConns)
}
