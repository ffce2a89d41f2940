package orm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hanfei1991/instancesync/pkg/sqlutil"
)

// NewMockClient creates an orm client on a private in-memory sqlite db
func NewMockClient() (Client, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	conf := sqlutil.NewDefaultDBConfig()
	// a shared-cache memory db is dropped once its last connection closes
	conf.MaxOpenConns = 1
	conf.MaxIdleConns = 1
	conf.ConnMaxIdleTime = time.Hour
	cli, err := NewClient(StoreTypeSQLite, dsn, conf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cli.Initialize(ctx); err != nil {
		cli.Close()
		return nil, err
	}

	return cli, nil
}
