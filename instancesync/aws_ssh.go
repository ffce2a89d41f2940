package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// AwsSSHCreator keeps exactly one task per infrastructure mapping.
type AwsSSHCreator struct {
	baseCreator
}

// NewAwsSSHCreator creates an AwsSSHCreator.
func NewAwsSSHCreator(deps CreatorDeps) *AwsSSHCreator {
	return &AwsSSHCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskAwsSSHInstanceSync, "AWS SSH instance sync",
			InfrastructureMappingID),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *AwsSSHCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.singleTask(ctx, m)
}

// CreatePerpetualTasksForNewDeployment implements
// PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment. A deployment
// changes nothing once the mapping has its task.
func (c *AwsSSHCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	_ []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	if m == nil {
		return nil, cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	params := clientParams(m, nil)
	id, _ := identityOf(params, c.identityKeys)
	if rec, ok := represented(existing, c.identityKeys)[id]; ok {
		return []string{rec.UUID}, nil
	}
	return c.createTasks(ctx, m, []map[string]string{params})
}
