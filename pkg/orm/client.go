package orm

import (
	"context"
	"database/sql"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite" // Sqlite driver based on CGO
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/orm/model"
	"github.com/hanfei1991/instancesync/pkg/sqlutil"
)

// store types
const (
	StoreTypeSQLite = "sqlite"
	StoreTypeMySQL  = "mysql"
)

var globalModels = []interface{}{
	&model.PerpetualTask{},
}

// Client is the orm client of the perpetual task table
type Client interface {
	// Initialize will create all related tables in SQL backend
	Initialize(ctx context.Context) error
	Close() error

	AddPerpetualTask(ctx context.Context, task *model.PerpetualTask) error
	GetPerpetualTaskByID(ctx context.Context, taskID string) (*model.PerpetualTask, error)
	QueryPerpetualTasks(ctx context.Context, accountID, taskType string) ([]*model.PerpetualTask, error)
	UpdatePerpetualTaskContext(ctx context.Context, taskID string, params datatypes.JSONMap, updatedAt time.Time) error
	TouchPerpetualTask(ctx context.Context, taskID string, updatedAt time.Time) error
}

type metaOpsClient struct {
	// gorm claim to be thread safe
	db   *gorm.DB
	impl *sql.DB
}

// NewClient opens a client on the given backend.
func NewClient(storeType string, dsn string, conf sqlutil.DBConfig) (Client, error) {
	var dialector gorm.Dialector
	var sqlDB *sql.DB
	switch storeType {
	case StoreTypeMySQL:
		var err error
		sqlDB, err = sqlutil.NewSQLDB("mysql", dsn, conf)
		if err != nil {
			return nil, err
		}
		dialector = mysql.New(mysql.Config{
			Conn:                      sqlDB,
			SkipInitializeWithVersion: false,
		})
	case StoreTypeSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, cerrors.ErrConfigInvalidStoreType.GenWithStackByArgs(storeType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.L().Error("create gorm client fail", zap.String("store-type", storeType), zap.Error(err))
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, cerrors.Wrap(cerrors.ErrMetaNewClientFail, err)
	}
	if sqlDB == nil {
		sqlDB, err = db.DB()
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrMetaNewClientFail, err)
		}
		sqlutil.ApplyPoolConfig(sqlDB, conf)
	}

	return &metaOpsClient{
		db:   db,
		impl: sqlDB,
	}, nil
}

func (c *metaOpsClient) Initialize(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(globalModels...); err != nil {
		return cerrors.Wrap(cerrors.ErrMetaOpFail, err, "auto migrate")
	}
	return nil
}

func (c *metaOpsClient) Close() error {
	if c.impl != nil {
		return c.impl.Close()
	}
	return nil
}

func (c *metaOpsClient) AddPerpetualTask(ctx context.Context, task *model.PerpetualTask) error {
	if task == nil {
		return cerrors.ErrInvalidArgument.GenWithStackByArgs("perpetual task is nil")
	}
	if err := c.db.WithContext(ctx).Create(task).Error; err != nil {
		return cerrors.Wrap(cerrors.ErrMetaOpFail, err, "add perpetual task")
	}
	return nil
}

func (c *metaOpsClient) GetPerpetualTaskByID(ctx context.Context, taskID string) (*model.PerpetualTask, error) {
	var task model.PerpetualTask
	err := c.db.WithContext(ctx).Where("task_id = ?", taskID).First(&task).Error
	if err == gorm.ErrRecordNotFound {
		return nil, cerrors.ErrMetaEntryNotFound.GenWithStackByArgs()
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrMetaOpFail, err, "get perpetual task")
	}
	return &task, nil
}

func (c *metaOpsClient) QueryPerpetualTasks(ctx context.Context, accountID, taskType string) ([]*model.PerpetualTask, error) {
	var tasks []*model.PerpetualTask
	err := c.db.WithContext(ctx).
		Where("account_id = ? AND task_type = ?", accountID, taskType).
		Order("seq_id").
		Find(&tasks).Error
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrMetaOpFail, err, "query perpetual tasks")
	}
	return tasks, nil
}

func (c *metaOpsClient) UpdatePerpetualTaskContext(ctx context.Context, taskID string, params datatypes.JSONMap, updatedAt time.Time) error {
	result := c.db.WithContext(ctx).Model(&model.PerpetualTask{}).
		Where("task_id = ?", taskID).
		Updates(map[string]interface{}{
			"client_params":      params,
			"context_updated_at": updatedAt,
		})
	if result.Error != nil {
		return cerrors.Wrap(cerrors.ErrMetaOpFail, result.Error, "update perpetual task")
	}
	if result.RowsAffected == 0 {
		return cerrors.ErrMetaEntryNotFound.GenWithStackByArgs()
	}
	return nil
}

func (c *metaOpsClient) TouchPerpetualTask(ctx context.Context, taskID string, updatedAt time.Time) error {
	result := c.db.WithContext(ctx).Model(&model.PerpetualTask{}).
		Where("task_id = ?", taskID).
		Update("context_updated_at", updatedAt)
	if result.Error != nil {
		return cerrors.Wrap(cerrors.ErrMetaOpFail, result.Error, "touch perpetual task")
	}
	if result.RowsAffected == 0 {
		return cerrors.ErrMetaEntryNotFound.GenWithStackByArgs()
	}
	return nil
}
