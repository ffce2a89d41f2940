package perpetualtask

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/hanfei1991/instancesync/model"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	pkgOrm "github.com/hanfei1991/instancesync/pkg/orm"
)

var testSchedule = model.PerpetualTaskSchedule{
	Interval: 10 * time.Minute,
	Timeout:  30 * time.Second,
}

func newTestRegistry(t *testing.T) (*registry, *clock.Mock) {
	cli, err := pkgOrm.NewMockClient()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, cli.Close())
	})
	clk := clock.NewMock()
	clk.Set(time.Date(2022, 3, 1, 8, 0, 0, 0, time.UTC))
	return newServiceWithClock(cli, clk), clk
}

func asgContext(asgName string) *model.PerpetualTaskClientContext {
	return &model.PerpetualTaskClientContext{
		ClientParams: map[string]string{
			"harnessAccountId": "acc-1",
			"asgName":          asgName,
		},
	}
}

func TestCreateAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, clk := newTestRegistry(t)

	id1, err := reg.CreateTask(ctx, model.PerpetualTaskAwsAmiInstanceSync, "acc-1",
		asgContext("asg-1"), testSchedule, false, "AMI instance sync")
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	clk.Add(time.Minute)
	id2, err := reg.CreateTask(ctx, model.PerpetualTaskAwsAmiInstanceSync, "acc-1",
		asgContext("asg-2"), testSchedule, false, "AMI instance sync")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	records, err := reg.ListTasks(ctx, "acc-1", model.PerpetualTaskAwsAmiInstanceSync)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, id1, records[0].UUID)
	require.Equal(t, id2, records[1].UUID)
	require.Equal(t, testSchedule, records[0].Schedule)
	require.Equal(t, "asg-1", records[0].ClientContext.ClientParams["asgName"])
	require.Equal(t, "AMI instance sync", records[0].TaskDescription)
	require.Equal(t, model.PerpetualTaskAwsAmiInstanceSync, records[0].TaskType)
	require.Equal(t, clk.Now().Add(-time.Minute).Unix(), records[0].ClientContext.LastContextUpdated.Unix())

	records, err = reg.ListTasks(ctx, "acc-1", model.PerpetualTaskPcfInstanceSync)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCreateWithoutDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	id1, err := reg.CreateTask(ctx, model.PerpetualTaskAwsAmiInstanceSync, "acc-1",
		asgContext("asg-1"), testSchedule, false, "")
	require.NoError(t, err)

	// identical params yield the existing task
	id2, err := reg.CreateTask(ctx, model.PerpetualTaskAwsAmiInstanceSync, "acc-1",
		asgContext("asg-1"), testSchedule, false, "")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	// the same params for another account or type are distinct tasks
	id3, err := reg.CreateTask(ctx, model.PerpetualTaskAwsAmiInstanceSync, "acc-2",
		asgContext("asg-1"), testSchedule, false, "")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
	id4, err := reg.CreateTask(ctx, model.PerpetualTaskSpotinstAmiInstanceSync, "acc-1",
		asgContext("asg-1"), testSchedule, false, "")
	require.NoError(t, err)
	require.NotEqual(t, id1, id4)

	// allowDuplicate always inserts
	id5, err := reg.CreateTask(ctx, model.PerpetualTaskAwsAmiInstanceSync, "acc-1",
		asgContext("asg-1"), testSchedule, true, "")
	require.NoError(t, err)
	require.NotEqual(t, id1, id5)

	records, err := reg.ListTasks(ctx, "acc-1", model.PerpetualTaskAwsAmiInstanceSync)
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = reg.CreateTask(ctx, "", "acc-1", nil, testSchedule, false, "")
	require.True(t, cerrors.Is(err, cerrors.ErrInvalidArgument))
}

func TestResetTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, clk := newTestRegistry(t)

	id, err := reg.CreateTask(ctx, model.PerpetualTaskCustomDeploymentSync, "acc-1",
		asgContext("old"), testSchedule, false, "")
	require.NoError(t, err)

	clk.Add(time.Hour)
	require.NoError(t, reg.ResetTask(ctx, "acc-1", id, asgContext("new")))
	records, err := reg.ListTasks(ctx, "acc-1", model.PerpetualTaskCustomDeploymentSync)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "new", records[0].ClientContext.ClientParams["asgName"])
	require.Equal(t, clk.Now().Unix(), records[0].ClientContext.LastContextUpdated.Unix())

	// a nil context keeps the params and refreshes the timestamp
	clk.Add(time.Hour)
	require.NoError(t, reg.ResetTask(ctx, "acc-1", id, nil))
	records, err = reg.ListTasks(ctx, "acc-1", model.PerpetualTaskCustomDeploymentSync)
	require.NoError(t, err)
	require.Equal(t, "new", records[0].ClientContext.ClientParams["asgName"])
	require.Equal(t, clk.Now().Unix(), records[0].ClientContext.LastContextUpdated.Unix())

	err = reg.ResetTask(ctx, "acc-1", "missing", nil)
	require.True(t, cerrors.Is(err, cerrors.ErrTaskNotFound))
	err = reg.ResetTask(ctx, "acc-2", id, nil)
	require.True(t, cerrors.Is(err, cerrors.ErrTaskNotFound))
}
