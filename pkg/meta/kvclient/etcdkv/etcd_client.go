package etcdkv

import (
	"context"
	"time"

	"github.com/pingcap/log"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
)

const defaultDialTimeout = 5 * time.Second

// etcdImpl is the etcd implement of kvclient.KVClient
type etcdImpl struct {
	cli *clientv3.Client
}

// NewEtcdImpl dials the given endpoints and returns a KVClient.
func NewEtcdImpl(endpoints []string, dialTimeout time.Duration) (kvclient.KVClient, error) {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		log.L().Error("create etcd client fail", zap.Strings("endpoints", endpoints), zap.Error(err))
		return nil, cerrors.ErrMetaNewClientFail.Wrap(err).GenWithStackByCause()
	}
	return &etcdImpl{cli: cli}, nil
}

// NewEtcdImplFromClient wraps an existing etcd client. The caller keeps
// ownership of cli only if it does not call Close on the result.
func NewEtcdImplFromClient(cli *clientv3.Client) kvclient.KVClient {
	return &etcdImpl{cli: cli}
}

func getEtcdOptions(op kvclient.Op) []clientv3.OpOption {
	var etcdOps []clientv3.OpOption
	if op.IsOptsWithPrefix() {
		etcdOps = append(etcdOps, clientv3.WithPrefix())
	}
	return etcdOps
}

func (c *etcdImpl) Put(ctx context.Context, key, val string) error {
	if _, err := c.cli.Put(ctx, key, val); err != nil {
		return cerrors.Wrap(cerrors.ErrMetaOpFail, err, "put")
	}
	return nil
}

func (c *etcdImpl) Get(ctx context.Context, key string, opts ...kvclient.OpOption) (*kvclient.GetResponse, error) {
	etcdResp, err := c.cli.Get(ctx, key, getEtcdOptions(kvclient.NewOp(opts...))...)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrMetaOpFail, err, "get")
	}
	kvs := make([]*kvclient.KeyValue, 0, len(etcdResp.Kvs))
	for _, kv := range etcdResp.Kvs {
		kvs = append(kvs, &kvclient.KeyValue{
			Key:   kv.Key,
			Value: kv.Value,
		})
	}
	return &kvclient.GetResponse{Kvs: kvs}, nil
}

func (c *etcdImpl) Delete(ctx context.Context, key string, opts ...kvclient.OpOption) error {
	if _, err := c.cli.Delete(ctx, key, getEtcdOptions(kvclient.NewOp(opts...))...); err != nil {
		return cerrors.Wrap(cerrors.ErrMetaOpFail, err, "delete")
	}
	return nil
}

func (c *etcdImpl) Close() error {
	if c.cli != nil {
		return c.cli.Close()
	}
	return nil
}
