package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/featureflag"
	"github.com/hanfei1991/instancesync/pkg/logutil"
	"github.com/hanfei1991/instancesync/pkg/orm"
	"github.com/hanfei1991/instancesync/pkg/sqlutil"
)

// flag store types
const (
	FlagStoreMemory = "memory"
	FlagStoreEtcd   = "etcd"
)

const (
	defaultTaskStoreDSN    = "file:instancesync.db?cache=shared"
	defaultEtcdDialTimeout = 5 * time.Second
)

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return errors.Trace(err)
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// PoolConfig is the connection pool of the task store.
type PoolConfig struct {
	ConnMaxIdleTime Duration `toml:"conn-max-idle-time" json:"conn-max-idle-time"`
	ConnMaxLifeTime Duration `toml:"conn-max-life-time" json:"conn-max-life-time"`
	MaxIdleConns    int      `toml:"max-idle-conns" json:"max-idle-conns"`
	MaxOpenConns    int      `toml:"max-open-conns" json:"max-open-conns"`
}

// DBConfig converts the pool settings, filling unset ones with defaults.
func (p PoolConfig) DBConfig() sqlutil.DBConfig {
	return sqlutil.DBConfig{
		ConnMaxIdleTime: p.ConnMaxIdleTime.Duration,
		ConnMaxLifeTime: p.ConnMaxLifeTime.Duration,
		MaxIdleConns:    p.MaxIdleConns,
		MaxOpenConns:    p.MaxOpenConns,
	}.Adjust()
}

// TaskStoreConfig selects the SQL backend of the perpetual task registry.
type TaskStoreConfig struct {
	Type string     `toml:"type" json:"type"`
	DSN  string     `toml:"dsn" json:"dsn"`
	Pool PoolConfig `toml:"pool" json:"pool"`
}

// FlagStoreConfig selects the KV backend of feature flags and inventory.
type FlagStoreConfig struct {
	Type        string   `toml:"type" json:"type"`
	Endpoints   []string `toml:"endpoints" json:"endpoints"`
	DialTimeout Duration `toml:"dial-timeout" json:"dial-timeout"`
}

// InstanceSyncConfig tunes the rollout backfill.
type InstanceSyncConfig struct {
	// BackfillRate is the number of mappings backfilled per second. Zero
	// means unlimited.
	BackfillRate  float64 `toml:"backfill-rate" json:"backfill-rate"`
	BackfillBurst int     `toml:"backfill-burst" json:"backfill-burst"`
}

// StaticFlag seeds a feature flag into the flag store at startup.
type StaticFlag struct {
	Name     featureflag.FeatureName `toml:"name" json:"name"`
	Enabled  bool                    `toml:"enabled" json:"enabled"`
	Accounts []string                `toml:"accounts" json:"accounts"`
}

// Flag converts s to the persisted flag state.
func (s StaticFlag) Flag() featureflag.Flag {
	return featureflag.Flag{Name: s.Name, Enabled: s.Enabled, Accounts: s.Accounts}
}

// Config is the configuration of the instancesync tool.
type Config struct {
	flagSet *pflag.FlagSet

	ConfigFile string `toml:"config-file" json:"config-file"`

	Log          logutil.Config     `toml:"log" json:"log"`
	TaskStore    TaskStoreConfig    `toml:"task-store" json:"task-store"`
	FlagStore    FlagStoreConfig    `toml:"flag-store" json:"flag-store"`
	InstanceSync InstanceSyncConfig `toml:"instance-sync" json:"instance-sync"`
	StaticFlags  []StaticFlag       `toml:"static-flag" json:"static-flag"`

	endpoints string
}

// NewConfig creates a Config with its command line flags.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.flagSet = pflag.NewFlagSet("instancesync", pflag.ContinueOnError)
	fs := cfg.flagSet

	fs.StringVar(&cfg.ConfigFile, "config", "", "path to config file")
	fs.StringVarP(&cfg.Log.Level, "log-level", "L", "", "log level: debug, info, warn, error, fatal")
	fs.StringVar(&cfg.Log.File, "log-file", "", "log file path")
	fs.StringVar(&cfg.Log.Format, "log-format", "", `the format of the log, "text" or "json"`)
	fs.StringVar(&cfg.TaskStore.Type, "task-store-type", "", `perpetual task store, "sqlite" or "mysql"`)
	fs.StringVar(&cfg.TaskStore.DSN, "task-store-dsn", "", "data source name of the perpetual task store")
	fs.StringVar(&cfg.FlagStore.Type, "flag-store-type", "", `feature flag store, "memory" or "etcd"`)
	fs.StringVar(&cfg.endpoints, "flag-store-endpoints", "", "comma separated etcd endpoints of the flag store")
	fs.Float64Var(&cfg.InstanceSync.BackfillRate, "backfill-rate", 0, "infrastructure mappings backfilled per second, 0 for unlimited")

	return cfg
}

// FlagSet returns the command line flags bound to c.
func (c *Config) FlagSet() *pflag.FlagSet {
	return c.flagSet
}

func (c *Config) String() string {
	cfg, err := json.Marshal(c)
	if err != nil {
		log.L().Error("marshal to json", zap.Reflect("config", c), zap.Error(err))
	}
	return string(cfg)
}

// Toml returns TOML format representation of config.
func (c *Config) Toml() (string, error) {
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", errors.Trace(err)
	}
	return b.String(), nil
}

// Parse parses the argument list, then the config file it names, then the
// arguments again so that command line options win.
func (c *Config) Parse(arguments []string) error {
	if err := c.flagSet.Parse(arguments); err != nil {
		return errors.Trace(err)
	}
	return c.Load()
}

// Load applies the config file to c and adjusts the result. Flags already
// set on the command line keep their value.
func (c *Config) Load() error {
	if c.ConfigFile != "" {
		overrides := make(map[string]string)
		// flags may have been parsed by another FlagSet they were added to
		c.flagSet.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				overrides[f.Name] = f.Value.String()
			}
		})
		if err := c.configFromFile(c.ConfigFile); err != nil {
			return err
		}
		for name, value := range overrides {
			if err := c.flagSet.Set(name, value); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return c.Adjust()
}

// Adjust fills defaults and validates the config.
func (c *Config) Adjust() error {
	c.Log.Adjust()

	switch c.TaskStore.Type {
	case "":
		c.TaskStore.Type = orm.StoreTypeSQLite
	case orm.StoreTypeSQLite, orm.StoreTypeMySQL:
	default:
		return cerrors.ErrConfigInvalidStoreType.GenWithStackByArgs(c.TaskStore.Type)
	}
	if c.TaskStore.DSN == "" {
		if c.TaskStore.Type == orm.StoreTypeMySQL {
			return cerrors.ErrConfigInvalidValue.GenWithStackByArgs("task-store.dsn", c.TaskStore.DSN)
		}
		c.TaskStore.DSN = defaultTaskStoreDSN
	}

	if c.endpoints != "" {
		c.FlagStore.Endpoints = strings.Split(c.endpoints, ",")
	}
	switch c.FlagStore.Type {
	case "":
		c.FlagStore.Type = FlagStoreMemory
	case FlagStoreMemory:
	case FlagStoreEtcd:
		if len(c.FlagStore.Endpoints) == 0 {
			return cerrors.ErrConfigInvalidValue.GenWithStackByArgs("flag-store.endpoints", c.FlagStore.Endpoints)
		}
	default:
		return cerrors.ErrConfigInvalidStoreType.GenWithStackByArgs(c.FlagStore.Type)
	}
	if c.FlagStore.DialTimeout.Duration <= 0 {
		c.FlagStore.DialTimeout.Duration = defaultEtcdDialTimeout
	}

	if c.InstanceSync.BackfillRate < 0 {
		return cerrors.ErrConfigInvalidValue.GenWithStackByArgs("instance-sync.backfill-rate", c.InstanceSync.BackfillRate)
	}
	if c.InstanceSync.BackfillBurst <= 0 {
		c.InstanceSync.BackfillBurst = 1
	}

	for _, flag := range c.StaticFlags {
		if flag.Name == "" {
			return cerrors.ErrConfigInvalidValue.GenWithStackByArgs("static-flag.name", flag.Name)
		}
	}
	return nil
}

// configFromFile loads config from file.
func (c *Config) configFromFile(path string) error {
	metaData, err := toml.DecodeFile(path, c)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrConfigDecodeFile, err)
	}
	undecoded := metaData.Undecoded()
	if len(undecoded) > 0 {
		var undecodedItems []string
		for _, item := range undecoded {
			undecodedItems = append(undecodedItems, item.String())
		}
		return cerrors.ErrConfigUnknownItem.GenWithStackByArgs(strings.Join(undecodedItems, ","))
	}
	return nil
}
