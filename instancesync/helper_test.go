package instancesync

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/mock"

	"github.com/hanfei1991/instancesync/model"
	ptmock "github.com/hanfei1991/instancesync/perpetualtask/mock"
	"github.com/hanfei1991/instancesync/pkg/featureflag"
	"github.com/hanfei1991/instancesync/pkg/promutil"
)

const (
	testAccount = "acc-1"
	testApp     = "app-1"
	testEnv     = "env-1"
	testMapping = "im-1"
)

var errRegistryDown = errors.New("registry unavailable")

func newTestMapping(tp model.InfraMappingType) *model.InfrastructureMapping {
	return &model.InfrastructureMapping{
		UUID:             testMapping,
		AccountID:        testAccount,
		AppID:            testApp,
		EnvID:            testEnv,
		InfraMappingType: tp,
	}
}

func newTestMetrics() *Metrics {
	return NewMetrics(promutil.NewFactory(promutil.NewRegistry(), "test", "instancesync", nil))
}

type mockInstanceLister struct {
	mock.Mock
}

func (m *mockInstanceLister) GetInstancesForAppAndInframapping(
	ctx context.Context, appID, infraMappingID string,
) ([]*model.Instance, error) {
	args := m.Called(ctx, appID, infraMappingID)
	instances, _ := args.Get(0).([]*model.Instance)
	return instances, args.Error(1)
}

func listerOf(instances ...*model.Instance) *mockInstanceLister {
	lister := &mockInstanceLister{}
	lister.On("GetInstancesForAppAndInframapping", mock.Anything, testApp, testMapping).Return(instances, nil)
	return lister
}

type mockMappingLister struct {
	mock.Mock
}

func (m *mockMappingLister) ListInfraMappings(
	ctx context.Context, accountID string, infraMappingType model.InfraMappingType,
) ([]*model.InfrastructureMapping, error) {
	args := m.Called(ctx, accountID, infraMappingType)
	mappings, _ := args.Get(0).([]*model.InfrastructureMapping)
	return mappings, args.Error(1)
}

func (m *mockMappingLister) GetInfraMapping(
	ctx context.Context, accountID, infraMappingID string,
) (*model.InfrastructureMapping, error) {
	args := m.Called(ctx, accountID, infraMappingID)
	mapping, _ := args.Get(0).(*model.InfrastructureMapping)
	return mapping, args.Error(1)
}

type mockFlags struct {
	mock.Mock
}

func (m *mockFlags) IsEnabled(ctx context.Context, name featureflag.FeatureName, accountID string) (bool, error) {
	args := m.Called(ctx, name, accountID)
	return args.Bool(0), args.Error(1)
}

// taskRecorder keeps the client params of every task created through a
// recording service and serves them back from ListTasks.
type taskRecorder struct {
	mu      sync.Mutex
	seeded  []*model.PerpetualTaskRecord
	created []map[string]string
	types   []model.PerpetualTaskType
}

// seed registers records that exist before the test starts.
func (r *taskRecorder) seed(records ...*model.PerpetualTaskRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeded = append(r.seeded, records...)
}

func (r *taskRecorder) list(accountID string, taskType model.PerpetualTaskType) []*model.PerpetualTaskRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ret []*model.PerpetualTaskRecord
	for _, rec := range r.seeded {
		if rec.AccountID == accountID && rec.TaskType == taskType {
			ret = append(ret, rec)
		}
	}
	if accountID != testAccount {
		return ret
	}
	for i, params := range r.created {
		if r.types[i] != taskType {
			continue
		}
		ret = append(ret, &model.PerpetualTaskRecord{
			UUID:          fmt.Sprintf("task-%d", i+1),
			AccountID:     testAccount,
			TaskType:      taskType,
			ClientContext: model.PerpetualTaskClientContext{ClientParams: params},
			Schedule:      DefaultSchedule,
		})
	}
	return ret
}

func (r *taskRecorder) params(key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]string, 0, len(r.created))
	for _, p := range r.created {
		ret = append(ret, p[key])
	}
	return ret
}

func (r *taskRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

// newRecordingService returns a MockService whose CreateTask succeeds
// unless fail rejects the params. ListTasks returns the seeded records
// followed by the created ones.
func newRecordingService(t *testing.T, fail func(params map[string]string) bool) (*ptmock.MockService, *taskRecorder) {
	ctrl := gomock.NewController(t)
	svc := ptmock.NewMockService(ctrl)
	rec := &taskRecorder{}
	svc.EXPECT().
		CreateTask(gomock.Any(), gomock.Any(), testAccount, gomock.Any(), DefaultSchedule, false, gomock.Any()).
		DoAndReturn(func(
			_ context.Context,
			taskType model.PerpetualTaskType,
			_ string,
			clientContext *model.PerpetualTaskClientContext,
			_ model.PerpetualTaskSchedule,
			_ bool,
			_ string,
		) (string, error) {
			if fail != nil && fail(clientContext.ClientParams) {
				return "", errRegistryDown
			}
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.created = append(rec.created, clientContext.ClientParams)
			rec.types = append(rec.types, taskType)
			return fmt.Sprintf("task-%d", len(rec.created)), nil
		}).AnyTimes()
	svc.EXPECT().
		ListTasks(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, accountID string, taskType model.PerpetualTaskType) ([]*model.PerpetualTaskRecord, error) {
			return rec.list(accountID, taskType), nil
		}).AnyTimes()
	return svc, rec
}

// newStrictService returns a MockService expecting no call at all.
func newStrictService(t *testing.T) *ptmock.MockService {
	return ptmock.NewMockService(gomock.NewController(t))
}

func asgInstance(id, asgName string) *model.Instance {
	return &model.Instance{
		UUID:           id,
		InstanceType:   model.InstanceTypeEc2Cloud,
		AccountID:      testAccount,
		AppID:          testApp,
		InfraMappingID: testMapping,
		InstanceInfo: &model.AutoScalingGroupInstanceInfo{
			Ec2InstanceID:        "ec2-" + id,
			AutoScalingGroupName: asgName,
		},
	}
}

func ec2Instance(id string) *model.Instance {
	return &model.Instance{
		UUID:           id,
		InstanceType:   model.InstanceTypeEc2Cloud,
		AccountID:      testAccount,
		AppID:          testApp,
		InfraMappingID: testMapping,
		InstanceInfo:   &model.Ec2InstanceInfo{Ec2InstanceID: "ec2-" + id},
	}
}

func deployment(id string, info model.DeploymentInfo) *model.DeploymentSummary {
	return &model.DeploymentSummary{
		UUID:           id,
		AccountID:      testAccount,
		AppID:          testApp,
		EnvID:          testEnv,
		InfraMappingID: testMapping,
		DeploymentInfo: info,
	}
}

func record(id string, taskType model.PerpetualTaskType, params map[string]string) *model.PerpetualTaskRecord {
	full := map[string]string{
		HarnessAccountID:        testAccount,
		HarnessApplicationID:    testApp,
		InfrastructureMappingID: testMapping,
	}
	for k, v := range params {
		full[k] = v
	}
	return &model.PerpetualTaskRecord{
		UUID:          id,
		AccountID:     testAccount,
		TaskType:      taskType,
		ClientContext: model.PerpetualTaskClientContext{ClientParams: full},
		Schedule:      DefaultSchedule,
	}
}
