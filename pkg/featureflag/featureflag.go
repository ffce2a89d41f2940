package featureflag

import (
	"context"
	"sync"

	"github.com/pingcap/errors"

	"github.com/hanfei1991/instancesync/pkg/adapter"
	"github.com/hanfei1991/instancesync/pkg/dataset"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
)

// FeatureName names an account scoped flag.
type FeatureName string

// flags consulted by instance sync
const (
	// MovePcfInstanceSyncToPerpetualTask makes the perpetual task path
	// authoritative for PCF instance state.
	MovePcfInstanceSyncToPerpetualTask FeatureName = "MOVE_PCF_INSTANCE_SYNC_TO_PERPETUAL_TASK"
	// StopInstanceSyncViaIteratorForPcf stops the legacy iterator for PCF.
	StopInstanceSyncViaIteratorForPcf FeatureName = "STOP_INSTANCE_SYNC_VIA_ITERATOR_FOR_PCF_DEPLOYMENTS"
)

// Service answers whether a flag is on for an account.
type Service interface {
	IsEnabled(ctx context.Context, name FeatureName, accountID string) (bool, error)
}

// Flag is the persisted state of one feature flag. A flag is enabled for an
// account when it is enabled globally or the account is listed.
type Flag struct {
	Name     FeatureName `json:"name"`
	Enabled  bool        `json:"enabled"`
	Accounts []string    `json:"accounts,omitempty"`
}

// ID implements dataset.DataEntry
func (f *Flag) ID() string {
	return string(f.Name)
}

func (f *Flag) enabledFor(accountID string) bool {
	if f.Enabled {
		return true
	}
	for _, acc := range f.Accounts {
		if acc == accountID {
			return true
		}
	}
	return false
}

// Store is a Service backed by a meta KV.
type Store struct {
	flags *dataset.DataSet[Flag, *Flag]
}

// NewStore creates a Store over cli.
func NewStore(cli kvclient.KV) *Store {
	return &Store{
		flags: dataset.NewDataSet[Flag, *Flag](cli, adapter.FeatureFlagKey),
	}
}

// IsEnabled implements Service.IsEnabled. A flag that was never written is
// disabled. A KV failure is reported as ErrFeatureFlagUnavailable.
func (s *Store) IsEnabled(ctx context.Context, name FeatureName, accountID string) (bool, error) {
	flag, err := s.flags.Get(ctx, string(name))
	if err != nil {
		if cerrors.Is(err, cerrors.ErrDatasetEntryNotFound) {
			return false, nil
		}
		return false, cerrors.Wrap(cerrors.ErrFeatureFlagUnavailable, err, name, accountID)
	}
	return flag.enabledFor(accountID), nil
}

// EnableForAccount adds accountID to the flag.
func (s *Store) EnableForAccount(ctx context.Context, name FeatureName, accountID string) error {
	flag, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	if flag.enabledFor(accountID) {
		return nil
	}
	flag.Accounts = append(flag.Accounts, accountID)
	return errors.Trace(s.flags.Upsert(ctx, flag))
}

// DisableForAccount removes accountID from the flag. A globally enabled
// flag stays enabled.
func (s *Store) DisableForAccount(ctx context.Context, name FeatureName, accountID string) error {
	flag, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	accounts := flag.Accounts[:0]
	for _, acc := range flag.Accounts {
		if acc != accountID {
			accounts = append(accounts, acc)
		}
	}
	flag.Accounts = accounts
	return errors.Trace(s.flags.Upsert(ctx, flag))
}

// Put overwrites the whole state of flag.
func (s *Store) Put(ctx context.Context, flag Flag) error {
	if flag.Name == "" {
		return cerrors.ErrInvalidArgument.GenWithStackByArgs("empty feature flag name")
	}
	return errors.Trace(s.flags.Upsert(ctx, &flag))
}

// SetGlobal turns the flag on or off for every account.
func (s *Store) SetGlobal(ctx context.Context, name FeatureName, enabled bool) error {
	flag, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	flag.Enabled = enabled
	return errors.Trace(s.flags.Upsert(ctx, flag))
}

func (s *Store) load(ctx context.Context, name FeatureName) (*Flag, error) {
	flag, err := s.flags.Get(ctx, string(name))
	if err == nil {
		return flag, nil
	}
	if cerrors.Is(err, cerrors.ErrDatasetEntryNotFound) {
		return &Flag{Name: name}, nil
	}
	return nil, err
}

// Static is an in-process Service, mostly for tests and config seeded
// deployments.
type Static struct {
	mu    sync.RWMutex
	flags map[FeatureName]*Flag
}

// NewStatic creates a Static service from the given flags.
func NewStatic(flags ...Flag) *Static {
	s := &Static{flags: make(map[FeatureName]*Flag, len(flags))}
	for i := range flags {
		f := flags[i]
		s.flags[f.Name] = &f
	}
	return s
}

// IsEnabled implements Service.IsEnabled
func (s *Static) IsEnabled(_ context.Context, name FeatureName, accountID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flag, ok := s.flags[name]
	if !ok {
		return false, nil
	}
	return flag.enabledFor(accountID), nil
}

// Set replaces the state of one flag.
func (s *Static) Set(flag Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag.Name] = &flag
}
