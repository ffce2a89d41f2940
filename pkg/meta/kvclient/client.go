package kvclient

import "context"

// KeyValue is a single entry returned by a Get.
type KeyValue struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// GetResponse wraps the entries found by a Get.
type GetResponse struct {
	Kvs []*KeyValue
}

// Op holds the options of a single KV operation.
type Op struct {
	prefix bool
}

// OpOption configures an Op.
type OpOption func(*Op)

// WithPrefix makes Get and Delete match every key that starts with the
// given key.
func WithPrefix() OpOption {
	return func(op *Op) {
		op.prefix = true
	}
}

// NewOp applies opts and returns the resulting Op.
func NewOp(opts ...OpOption) Op {
	var op Op
	for _, opt := range opts {
		opt(&op)
	}
	return op
}

// IsOptsWithPrefix reports whether the prefix option is set.
func (op Op) IsOptsWithPrefix() bool {
	return op.prefix
}

// KV is the minimal key-value surface used by the datasets.
type KV interface {
	Put(ctx context.Context, key, val string) error
	Get(ctx context.Context, key string, opts ...OpOption) (*GetResponse, error)
	Delete(ctx context.Context, key string, opts ...OpOption) error
}

// KVClient is a KV that owns resources.
type KVClient interface {
	KV
	// Close is the method to close the client and release inner resources
	Close() error
}
