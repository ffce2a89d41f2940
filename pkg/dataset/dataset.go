package dataset

import (
	"context"
	"encoding/json"

	"github.com/pingcap/errors"

	"github.com/hanfei1991/instancesync/pkg/adapter"
	derror "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
)

// DataSet is a set of JSON encoded entities stored under one KV namespace.
// An optional scope narrows the namespace, e.g. to one account.
//nolint:structcheck
type DataSet[E any, T DataEntry[E]] struct {
	metaclient kvclient.KV
	keyPrefix  adapter.KeyAdapter
	scope      []string
}

// DataEntry is implemented by pointers to entities storable in a DataSet.
type DataEntry[E any] interface {
	ID() string
	*E
}

// NewDataSet creates a DataSet over metaclient.
func NewDataSet[E any, T DataEntry[E]](metaclient kvclient.KV, keyPrefix adapter.KeyAdapter, scope ...string) *DataSet[E, T] {
	return &DataSet[E, T]{
		metaclient: metaclient,
		keyPrefix:  keyPrefix,
		scope:      scope,
	}
}

// Get returns the entity with the given id.
func (d *DataSet[E, T]) Get(ctx context.Context, id string) (T, error) {
	getResp, err := d.metaclient.Get(ctx, d.getKey(id))
	if err != nil {
		return nil, errors.Trace(err)
	}

	if len(getResp.Kvs) == 0 {
		return nil, derror.ErrDatasetEntryNotFound.GenWithStackByArgs(d.getKey(id))
	}
	return decode[E, T](getResp.Kvs[0].Value)
}

// LoadAll returns every entity in the scope, ordered by the backend's key
// order.
func (d *DataSet[E, T]) LoadAll(ctx context.Context) ([]T, error) {
	getResp, err := d.metaclient.Get(ctx, d.keyPrefix.Encode(d.scope...), kvclient.WithPrefix())
	if err != nil {
		return nil, errors.Trace(err)
	}

	ret := make([]T, 0, len(getResp.Kvs))
	for _, kv := range getResp.Kvs {
		entry, err := decode[E, T](kv.Value)
		if err != nil {
			return nil, err
		}
		ret = append(ret, entry)
	}
	return ret, nil
}

// Upsert inserts or replaces entry.
func (d *DataSet[E, T]) Upsert(ctx context.Context, entry T) error {
	rawBytes, err := json.Marshal(entry)
	if err != nil {
		return errors.Trace(err)
	}

	if err := d.metaclient.Put(ctx, d.getKey(entry.ID()), string(rawBytes)); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Delete removes the entity with the given id. Deleting a missing entity is
// not an error.
func (d *DataSet[E, T]) Delete(ctx context.Context, id string) error {
	if err := d.metaclient.Delete(ctx, d.getKey(id)); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *DataSet[E, T]) getKey(id string) string {
	keys := make([]string, 0, len(d.scope)+1)
	keys = append(keys, d.scope...)
	keys = append(keys, id)
	return d.keyPrefix.Encode(keys...)
}

func decode[E any, T DataEntry[E]](rawBytes []byte) (T, error) {
	var retVal E
	if err := json.Unmarshal(rawBytes, &retVal); err != nil {
		return nil, errors.Trace(err)
	}
	return &retVal, nil
}
