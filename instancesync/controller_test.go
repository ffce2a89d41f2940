package instancesync

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hanfei1991/instancesync/model"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/featureflag"
)

func flagsWith(names ...featureflag.FeatureName) *featureflag.Static {
	flags := make([]featureflag.Flag, 0, len(names))
	for _, name := range names {
		flags = append(flags, featureflag.Flag{Name: name, Accounts: []string{testAccount}})
	}
	return featureflag.NewStatic(flags...)
}

func unavailableFlags() *mockFlags {
	flags := &mockFlags{}
	flags.On("IsEnabled", mock.Anything, mock.Anything, mock.Anything).
		Return(false, cerrors.ErrFeatureFlagUnavailable.GenWithStackByArgs("any", testAccount))
	return flags
}

func newFlagOnlyController(flags featureflag.Service) *Controller {
	return NewController(ControllerDeps{
		Flags:    flags,
		Creators: NewCreatorRegistry(),
		Metrics:  newTestMetrics(),
	})
}

func TestCanUpdateDbNewDeploymentAlwaysAllowed(t *testing.T) {
	t.Parallel()

	flagSets := []featureflag.Service{
		flagsWith(),
		flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask),
		flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask, featureflag.StopInstanceSyncViaIteratorForPcf),
		unavailableFlags(),
	}
	types := []model.InfraMappingType{
		model.InfraMappingPcf, model.InfraMappingAwsAmi, model.InfraMappingAwsSSH,
		model.InfraMappingCustom, model.InfraMappingDirectKubernetes,
	}
	for _, flags := range flagSets {
		c := newFlagOnlyController(flags)
		for _, tp := range types {
			require.True(t, c.CanUpdateDb(context.Background(), FlowNewDeployment, newTestMapping(tp), "handler"), tp)
		}
		require.True(t, c.CanUpdateDb(context.Background(), FlowNewDeployment, nil, "handler"))
	}
}

func TestCanUpdateDbDecisionTable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		tp       model.InfraMappingType
		flags    featureflag.Service
		flow     InstanceSyncFlow
		expected bool
	}{
		// migrating type, flag off: the iterator owns the state
		{model.InfraMappingPcf, flagsWith(), FlowIteratorInstanceSync, true},
		{model.InfraMappingPcf, flagsWith(), FlowPerpetualTask, false},
		// migrating type, flag on: perpetual tasks own the state
		{model.InfraMappingPcf, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask), FlowIteratorInstanceSync, false},
		{model.InfraMappingPcf, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask), FlowPerpetualTask, true},
		// the stop-iterator flag alone does not move the write path
		{model.InfraMappingPcf, flagsWith(featureflag.StopInstanceSyncViaIteratorForPcf), FlowIteratorInstanceSync, true},
		{model.InfraMappingPcf, flagsWith(featureflag.StopInstanceSyncViaIteratorForPcf), FlowPerpetualTask, false},
		// an unavailable flag counts as off
		{model.InfraMappingPcf, unavailableFlags(), FlowIteratorInstanceSync, true},
		{model.InfraMappingPcf, unavailableFlags(), FlowPerpetualTask, false},
		// types not migrating allow both flows
		{model.InfraMappingAwsAmi, flagsWith(), FlowIteratorInstanceSync, true},
		{model.InfraMappingAwsAmi, flagsWith(), FlowPerpetualTask, true},
		{model.InfraMappingAwsAmi, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask), FlowIteratorInstanceSync, true},
		{model.InfraMappingAwsAmi, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask), FlowPerpetualTask, true},
		// unknown flows are never allowed
		{model.InfraMappingAwsAmi, flagsWith(), InstanceSyncFlow("SOMETHING_ELSE"), false},
	}
	for i, tc := range testCases {
		c := newFlagOnlyController(tc.flags)
		got := c.CanUpdateDb(context.Background(), tc.flow, newTestMapping(tc.tp), "handler")
		require.Equal(t, tc.expected, got, "case %d", i)
	}
}

func TestCanUpdateDbFlagScopedToAccount(t *testing.T) {
	t.Parallel()

	c := newFlagOnlyController(flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask))
	mapping := newTestMapping(model.InfraMappingPcf)
	require.True(t, c.CanUpdateDb(context.Background(), FlowPerpetualTask, mapping, "handler"))

	mapping.AccountID = "acc-2"
	require.False(t, c.CanUpdateDb(context.Background(), FlowPerpetualTask, mapping, "handler"))
	require.True(t, c.CanUpdateDb(context.Background(), FlowIteratorInstanceSync, mapping, "handler"))

	require.Equal(t, float64(1), testutil.ToFloat64(
		c.metrics.updateDecisions.WithLabelValues(string(FlowPerpetualTask), "false")))
	require.Equal(t, float64(1), testutil.ToFloat64(
		c.metrics.updateDecisions.WithLabelValues(string(FlowPerpetualTask), "true")))
}

func TestShouldSkipIteratorInstanceSync(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		tp       model.InfraMappingType
		flags    featureflag.Service
		expected bool
	}{
		{model.InfraMappingPcf, flagsWith(featureflag.StopInstanceSyncViaIteratorForPcf), true},
		{model.InfraMappingPcf, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask, featureflag.StopInstanceSyncViaIteratorForPcf), true},
		{model.InfraMappingPcf, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask), false},
		{model.InfraMappingPcf, flagsWith(), false},
		{model.InfraMappingPcf, unavailableFlags(), false},
		{model.InfraMappingAwsAmi, flagsWith(featureflag.StopInstanceSyncViaIteratorForPcf), false},
		{model.InfraMappingCustom, flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask, featureflag.StopInstanceSyncViaIteratorForPcf), false},
	}
	for i, tc := range testCases {
		c := newFlagOnlyController(tc.flags)
		require.Equal(t, tc.expected, c.ShouldSkipIteratorInstanceSync(context.Background(), newTestMapping(tc.tp)), "case %d", i)
	}
	require.False(t, newFlagOnlyController(flagsWith()).ShouldSkipIteratorInstanceSync(context.Background(), nil))
}

func pcfMapping(id string) *model.InfrastructureMapping {
	m := newTestMapping(model.InfraMappingPcf)
	m.UUID = id
	return m
}

func TestEnablePerpetualTaskForAccount(t *testing.T) {
	t.Parallel()

	svc, rec := newRecordingService(t, nil)
	instances := &mockInstanceLister{}
	instances.On("GetInstancesForAppAndInframapping", mock.Anything, testApp, "im-1").Return([]*model.Instance{
		{UUID: "i-1", InstanceInfo: &model.PcfInstanceInfo{PcfApplicationName: "web"}},
		{UUID: "i-2", InstanceInfo: &model.PcfInstanceInfo{PcfApplicationName: "worker"}},
	}, nil)
	instances.On("GetInstancesForAppAndInframapping", mock.Anything, testApp, "im-2").Return([]*model.Instance{}, nil)
	mappings := &mockMappingLister{}
	mappings.On("ListInfraMappings", mock.Anything, testAccount, model.InfraMappingPcf).
		Return([]*model.InfrastructureMapping{pcfMapping("im-1"), pcfMapping("im-2")}, nil)
	mappings.On("ListInfraMappings", mock.Anything, testAccount, model.InfraMappingAwsAmi).
		Return([]*model.InfrastructureMapping{}, nil)

	c := NewController(ControllerDeps{
		Flags:    flagsWith(),
		Creators: NewDefaultCreatorRegistry(CreatorDeps{Tasks: svc, Instances: instances}),
		Mappings: mappings,
		Limiter:  rate.NewLimiter(rate.Every(time.Millisecond), 1),
	})

	enabled, err := c.EnablePerpetualTaskForAccount(context.Background(), testAccount, model.InfraMappingPcf)
	require.NoError(t, err)
	require.True(t, enabled)
	require.Equal(t, []string{"web", "worker"}, rec.params(ApplicationNameKey))
	instances.AssertExpectations(t)

	// no mapping of the type in the account
	enabled, err = c.EnablePerpetualTaskForAccount(context.Background(), testAccount, model.InfraMappingAwsAmi)
	require.NoError(t, err)
	require.False(t, enabled)

	// no creator for the type
	enabled, err = c.EnablePerpetualTaskForAccount(context.Background(), testAccount, model.InfraMappingDirectKubernetes)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestEnablePerpetualTaskForAccountFailures(t *testing.T) {
	t.Parallel()

	svc, rec := newRecordingService(t, func(params map[string]string) bool {
		return params[InfrastructureMappingID] == "im-1"
	})
	mappings := &mockMappingLister{}
	mappings.On("ListInfraMappings", mock.Anything, testAccount, model.InfraMappingAwsSSH).
		Return([]*model.InfrastructureMapping{
			{UUID: "im-1", AccountID: testAccount, AppID: testApp, InfraMappingType: model.InfraMappingAwsSSH},
			{UUID: "im-2", AccountID: testAccount, AppID: testApp, InfraMappingType: model.InfraMappingAwsSSH},
		}, nil)
	mappings.On("ListInfraMappings", mock.Anything, "acc-broken", model.InfraMappingAwsSSH).
		Return(nil, cerrors.ErrInfraMappingListFailed.GenWithStackByArgs("acc-broken"))

	c := NewController(ControllerDeps{
		Flags:    flagsWith(),
		Creators: NewDefaultCreatorRegistry(CreatorDeps{Tasks: svc}),
		Mappings: mappings,
	})

	enabled, err := c.EnablePerpetualTaskForAccount(context.Background(), testAccount, model.InfraMappingAwsSSH)
	require.True(t, enabled)
	require.True(t, cerrors.Is(err, cerrors.ErrTaskCreationFailed))
	require.Equal(t, []string{"im-2"}, rec.params(InfrastructureMappingID))

	enabled, err = c.EnablePerpetualTaskForAccount(context.Background(), "acc-broken", model.InfraMappingAwsSSH)
	require.False(t, enabled)
	require.True(t, cerrors.Is(err, cerrors.ErrInfraMappingListFailed))

	// a cancelled backfill stops before touching the registry
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	enabled, err = c.EnablePerpetualTaskForAccount(ctx, testAccount, model.InfraMappingAwsSSH)
	require.False(t, enabled)
	require.Error(t, err)
	require.Equal(t, 1, rec.count())
}

func TestCreatePerpetualTaskForNewDeployment(t *testing.T) {
	t.Parallel()

	svc, rec := newRecordingService(t, nil)
	rec.seed(
		record("t-1", model.PerpetualTaskAwsAmiInstanceSync, map[string]string{AsgNameKey: "asg-1"}),
		// the same group on another mapping does not count
		&model.PerpetualTaskRecord{
			UUID: "t-2", AccountID: testAccount, TaskType: model.PerpetualTaskAwsAmiInstanceSync,
			ClientContext: model.PerpetualTaskClientContext{ClientParams: map[string]string{
				InfrastructureMappingID: "im-other", AsgNameKey: "asg-2",
			}},
		},
	)
	mappings := &mockMappingLister{}
	mappings.On("GetInfraMapping", mock.Anything, testAccount, testMapping).
		Return(newTestMapping(model.InfraMappingAwsAmi), nil)

	c := NewController(ControllerDeps{
		Flags:    flagsWith(),
		Creators: NewDefaultCreatorRegistry(CreatorDeps{Tasks: svc, Instances: &mockInstanceLister{}}),
		Mappings: mappings,
		Records:  svc,
	})

	dispatched, err := c.CreatePerpetualTaskForNewDeployment(context.Background(), model.InfraMappingAwsAmi,
		[]*model.DeploymentSummary{
			deployment("d-1", &model.AwsAutoScalingGroupDeploymentInfo{AutoScalingGroupName: "asg-1"}),
			deployment("d-2", &model.AwsAutoScalingGroupDeploymentInfo{AutoScalingGroupName: "asg-2"}),
		})
	require.NoError(t, err)
	require.True(t, dispatched)
	require.Equal(t, []string{"asg-2"}, rec.params(AsgNameKey))

	dispatched, err = c.CreatePerpetualTaskForNewDeployment(context.Background(), model.InfraMappingAwsAmi, nil)
	require.NoError(t, err)
	require.False(t, dispatched)

	dispatched, err = c.CreatePerpetualTaskForNewDeployment(context.Background(), model.InfraMappingAwsEcs,
		[]*model.DeploymentSummary{deployment("d-3", &model.AwsSSHDeploymentInfo{})})
	require.NoError(t, err)
	require.False(t, dispatched)
}

func TestCreatePerpetualTaskForNewDeploymentPcfGate(t *testing.T) {
	t.Parallel()

	summaries := []*model.DeploymentSummary{
		deployment("d-1", &model.PcfDeploymentInfo{ApplicationName: "web"}),
	}

	// flag off: nothing is looked up or created
	c := NewController(ControllerDeps{
		Flags:    flagsWith(),
		Creators: NewDefaultCreatorRegistry(CreatorDeps{Tasks: newStrictService(t)}),
		Mappings: &mockMappingLister{},
		Records:  newStrictService(t),
	})
	dispatched, err := c.CreatePerpetualTaskForNewDeployment(context.Background(), model.InfraMappingPcf, summaries)
	require.NoError(t, err)
	require.False(t, dispatched)

	// flag on
	svc, rec := newRecordingService(t, nil)
	mappings := &mockMappingLister{}
	mappings.On("GetInfraMapping", mock.Anything, testAccount, testMapping).
		Return(newTestMapping(model.InfraMappingPcf), nil)
	c = NewController(ControllerDeps{
		Flags:    flagsWith(featureflag.MovePcfInstanceSyncToPerpetualTask),
		Creators: NewDefaultCreatorRegistry(CreatorDeps{Tasks: svc}),
		Mappings: mappings,
		Records:  svc,
	})
	dispatched, err = c.CreatePerpetualTaskForNewDeployment(context.Background(), model.InfraMappingPcf, summaries)
	require.NoError(t, err)
	require.True(t, dispatched)
	require.Equal(t, []string{"web"}, rec.params(ApplicationNameKey))
}

func TestCreatePerpetualTaskForNewDeploymentMissingMapping(t *testing.T) {
	t.Parallel()

	mappings := &mockMappingLister{}
	mappings.On("GetInfraMapping", mock.Anything, testAccount, testMapping).
		Return(nil, cerrors.ErrDatasetEntryNotFound.GenWithStackByArgs(testMapping))
	c := NewController(ControllerDeps{
		Flags:    flagsWith(),
		Creators: NewDefaultCreatorRegistry(CreatorDeps{Tasks: newStrictService(t)}),
		Mappings: mappings,
		Records:  newStrictService(t),
	})

	dispatched, err := c.CreatePerpetualTaskForNewDeployment(context.Background(), model.InfraMappingAwsAmi,
		[]*model.DeploymentSummary{
			deployment("d-1", &model.AwsAutoScalingGroupDeploymentInfo{AutoScalingGroupName: "asg-1"}),
		})
	require.False(t, dispatched)
	require.True(t, cerrors.Is(err, cerrors.ErrDatasetEntryNotFound))
}

func TestGroupByInfraMapping(t *testing.T) {
	t.Parallel()

	d := func(id, account, mapping string) *model.DeploymentSummary {
		return &model.DeploymentSummary{UUID: id, AccountID: account, InfraMappingID: mapping}
	}
	groups := groupByInfraMapping([]*model.DeploymentSummary{
		d("d-1", "acc-1", "im-2"),
		d("d-2", "acc-1", "im-1"),
		nil,
		d("d-3", "acc-1", "im-2"),
		d("d-4", "acc-2", "im-2"),
	})
	require.Len(t, groups, 3)
	require.Equal(t, "im-2", groups[0].infraMappingID)
	require.Len(t, groups[0].summaries, 2)
	require.Equal(t, "im-1", groups[1].infraMappingID)
	require.Equal(t, "acc-2", groups[2].accountID)
}
