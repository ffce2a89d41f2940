package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
)

// InstanceLister lists the live instances of an infrastructure mapping.
type InstanceLister interface {
	GetInstancesForAppAndInframapping(ctx context.Context, appID, infraMappingID string) ([]*model.Instance, error)
}

// InfraMappingLister looks up infrastructure mappings of an account.
type InfraMappingLister interface {
	ListInfraMappings(ctx context.Context, accountID string, infraMappingType model.InfraMappingType) ([]*model.InfrastructureMapping, error)
	GetInfraMapping(ctx context.Context, accountID, infraMappingID string) (*model.InfrastructureMapping, error)
}

// TaskRecordLister supplies the existing task records of one type in an
// account.
type TaskRecordLister interface {
	ListTasks(ctx context.Context, accountID string, taskType model.PerpetualTaskType) ([]*model.PerpetualTaskRecord, error)
}
