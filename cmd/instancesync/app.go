package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hanfei1991/instancesync/config"
	"github.com/hanfei1991/instancesync/instancesync"
	"github.com/hanfei1991/instancesync/model"
	"github.com/hanfei1991/instancesync/perpetualtask"
	"github.com/hanfei1991/instancesync/pkg/deps"
	"github.com/hanfei1991/instancesync/pkg/featureflag"
	"github.com/hanfei1991/instancesync/pkg/inventory"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient/etcdkv"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient/mock"
	pkgOrm "github.com/hanfei1991/instancesync/pkg/orm"
)

const storeInitTimeout = 10 * time.Second

// app holds the long lived components behind the commands.
type app struct {
	dig.In

	OrmCli     pkgOrm.Client
	KVCli      kvclient.KVClient
	Inventory  *inventory.Inventory
	Flags      *featureflag.Store
	Tasks      perpetualtask.Service
	Controller *instancesync.Controller
}

func newApp(cfg *config.Config) (*app, error) {
	d := deps.NewDeps()
	providers := []interface{}{
		func() *config.Config { return cfg },
		newOrmClient,
		newKVClient,
		func(cli kvclient.KVClient) *inventory.Inventory { return inventory.New(cli) },
		newFlagStore,
		perpetualtask.NewService,
		newBackfillLimiter,
		instancesync.DefaultMetrics,
		func(s *featureflag.Store) featureflag.Service { return s },
		func(inv *inventory.Inventory) instancesync.InstanceLister { return inv },
		func(inv *inventory.Inventory) instancesync.InfraMappingLister { return inv },
		func(s perpetualtask.Service) instancesync.TaskRecordLister { return s },
		instancesync.NewDefaultCreatorRegistry,
		instancesync.NewController,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	a := &app{}
	if err := d.Fill(a); err != nil {
		return nil, err
	}
	log.L().Info("instance sync components ready",
		zap.String("task-store", cfg.TaskStore.Type),
		zap.String("flag-store", cfg.FlagStore.Type))
	return a, nil
}

func (a *app) Close() error {
	var errs error
	if a.OrmCli != nil {
		errs = multierr.Append(errs, a.OrmCli.Close())
	}
	if a.KVCli != nil {
		errs = multierr.Append(errs, a.KVCli.Close())
	}
	return errs
}

func newOrmClient(cfg *config.Config) (pkgOrm.Client, error) {
	cli, err := pkgOrm.NewClient(cfg.TaskStore.Type, cfg.TaskStore.DSN, cfg.TaskStore.Pool.DBConfig())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()
	if err := cli.Initialize(ctx); err != nil {
		cli.Close()
		return nil, err
	}
	return cli, nil
}

func newKVClient(cfg *config.Config) (kvclient.KVClient, error) {
	if cfg.FlagStore.Type == config.FlagStoreEtcd {
		return etcdkv.NewEtcdImpl(cfg.FlagStore.Endpoints, cfg.FlagStore.DialTimeout.Duration)
	}
	return mock.NewMetaMock(), nil
}

// newFlagStore creates the flag store and writes the flags of the config
// into it.
func newFlagStore(cfg *config.Config, cli kvclient.KVClient) (*featureflag.Store, error) {
	store := featureflag.NewStore(cli)
	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()
	for _, flag := range cfg.StaticFlags {
		if err := store.Put(ctx, flag.Flag()); err != nil {
			return nil, err
		}
		log.L().Info("feature flag seeded",
			zap.String("flag", string(flag.Name)),
			zap.Bool("enabled", flag.Enabled),
			zap.Strings("accounts", flag.Accounts))
	}
	return store, nil
}

func newBackfillLimiter(cfg *config.Config) *rate.Limiter {
	limit := rate.Inf
	if cfg.InstanceSync.BackfillRate > 0 {
		limit = rate.Limit(cfg.InstanceSync.BackfillRate)
	}
	return rate.NewLimiter(limit, cfg.InstanceSync.BackfillBurst)
}

// inventoryFile is the JSON document accepted by --inventory.
type inventoryFile struct {
	InfraMappings []*model.InfrastructureMapping `json:"infra-mappings"`
	Instances     []*model.Instance              `json:"instances"`
}

func (a *app) loadInventory(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Trace(err)
	}
	var file inventoryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return errors.Annotatef(err, "decode inventory %s", path)
	}
	for _, m := range file.InfraMappings {
		if err := a.Inventory.UpsertInfraMapping(ctx, m); err != nil {
			return err
		}
	}
	for _, inst := range file.Instances {
		if err := a.Inventory.UpsertInstance(ctx, inst); err != nil {
			return err
		}
	}
	log.L().Info("inventory loaded",
		zap.String("path", path),
		zap.Int("infra-mappings", len(file.InfraMappings)),
		zap.Int("instances", len(file.Instances)))
	return nil
}
