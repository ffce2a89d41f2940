package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
)

func TestMetaMockPointAndPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cli := NewMetaMock()
	require.NoError(t, cli.Put(ctx, "/a/1", "v1"))
	require.NoError(t, cli.Put(ctx, "/a/2", "v2"))
	require.NoError(t, cli.Put(ctx, "/b/1", "v3"))
	require.Equal(t, int64(3), cli.Revision())

	rsp, err := cli.Get(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, rsp.Kvs, 0)

	rsp, err = cli.Get(ctx, "/a/1")
	require.NoError(t, err)
	require.Len(t, rsp.Kvs, 1)
	require.Equal(t, "v1", string(rsp.Kvs[0].Value))

	rsp, err = cli.Get(ctx, "/a/", kvclient.WithPrefix())
	require.NoError(t, err)
	require.Len(t, rsp.Kvs, 2)
	require.Equal(t, "/a/1", string(rsp.Kvs[0].Key))
	require.Equal(t, "/a/2", string(rsp.Kvs[1].Key))

	require.NoError(t, cli.Delete(ctx, "/a/", kvclient.WithPrefix()))
	rsp, err = cli.Get(ctx, "/", kvclient.WithPrefix())
	require.NoError(t, err)
	require.Len(t, rsp.Kvs, 1)
	require.Equal(t, "v3", string(rsp.Kvs[0].Value))

	require.NoError(t, cli.Delete(ctx, "/b/1"))
	rsp, err = cli.Get(ctx, "/b/1")
	require.NoError(t, err)
	require.Len(t, rsp.Kvs, 0)
	require.NoError(t, cli.Close())
}
