package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"

	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
)

// MetaMock is an in-memory kvclient.KVClient.
type MetaMock struct {
	sync.Mutex
	store    map[string]string
	revision atomic.Int64
}

// NewMetaMock creates an empty MetaMock.
func NewMetaMock() *MetaMock {
	return &MetaMock{
		store: make(map[string]string),
	}
}

// Put implements kvclient.KV.Put
func (m *MetaMock) Put(ctx context.Context, key, value string) error {
	m.Lock()
	defer m.Unlock()

	m.store[key] = value
	m.revision.Inc()
	return nil
}

// Get implements kvclient.KV.Get. Results are sorted by key.
func (m *MetaMock) Get(ctx context.Context, key string, opts ...kvclient.OpOption) (*kvclient.GetResponse, error) {
	m.Lock()
	defer m.Unlock()

	op := kvclient.NewOp(opts...)
	ret := &kvclient.GetResponse{}
	if !op.IsOptsWithPrefix() {
		if v, ok := m.store[key]; ok {
			ret.Kvs = append(ret.Kvs, &kvclient.KeyValue{Key: []byte(key), Value: []byte(v)})
		}
		return ret, nil
	}

	keys := make([]string, 0, len(m.store))
	for k := range m.store {
		if strings.HasPrefix(k, key) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		ret.Kvs = append(ret.Kvs, &kvclient.KeyValue{
			Key:   []byte(k),
			Value: []byte(m.store[k]),
		})
	}
	return ret, nil
}

// Delete implements kvclient.KV.Delete
func (m *MetaMock) Delete(ctx context.Context, key string, opts ...kvclient.OpOption) error {
	m.Lock()
	defer m.Unlock()

	op := kvclient.NewOp(opts...)
	if !op.IsOptsWithPrefix() {
		delete(m.store, key)
		m.revision.Inc()
		return nil
	}
	for k := range m.store {
		if strings.HasPrefix(k, key) {
			delete(m.store, k)
		}
	}
	m.revision.Inc()
	return nil
}

// Revision returns the number of mutations applied so far.
func (m *MetaMock) Revision() int64 {
	return m.revision.Load()
}

// Close implements kvclient.KVClient.Close
func (m *MetaMock) Close() error {
	return nil
}
