package sqlutil

import "time"

const (
	defaultConnMaxIdleTime = 30 * time.Second
	defaultConnMaxLifeTime = 12 * time.Hour
	defaultMaxIdleConns    = 3
	defaultMaxOpenConns    = 10
)

// refer to: https://pkg.go.dev/database/sql#SetConnMaxIdleTime
type DBConfig struct {
	ConnMaxIdleTime time.Duration `toml:"conn-max-idle-time" json:"conn-max-idle-time"`
	ConnMaxLifeTime time.Duration `toml:"conn-max-life-time" json:"conn-max-life-time"`
	MaxIdleConns    int           `toml:"max-idle-conns" json:"max-idle-conns"`
	MaxOpenConns    int           `toml:"max-open-conns" json:"max-open-conns"`
}

func NewDefaultDBConfig() DBConfig {
	return DBConfig{
		ConnMaxIdleTime: defaultConnMaxIdleTime,
		ConnMaxLifeTime: defaultConnMaxLifeTime,
		MaxIdleConns:    defaultMaxIdleConns,
		MaxOpenConns:    defaultMaxOpenConns,
	}
}

// Adjust fills zero values with defaults.
func (c DBConfig) Adjust() DBConfig {
	def := NewDefaultDBConfig()
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	if c.ConnMaxLifeTime <= 0 {
		c.ConnMaxLifeTime = def.ConnMaxLifeTime
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = def.MaxIdleConns
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = def.MaxOpenConns
	}
	return c
}
