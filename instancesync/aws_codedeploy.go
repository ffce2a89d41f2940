package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
)

// AwsCodeDeployCreator keeps a single task per infrastructure mapping. A
// new deployment adds nothing when the application already has the task.
type AwsCodeDeployCreator struct {
	baseCreator
}

// NewAwsCodeDeployCreator creates an AwsCodeDeployCreator.
func NewAwsCodeDeployCreator(deps CreatorDeps) *AwsCodeDeployCreator {
	return &AwsCodeDeployCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskAwsCodeDeployInstanceSync, "AWS CodeDeploy instance sync",
			HarnessApplicationID, InfrastructureMappingID),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks.
// Live instances are not consulted.
func (c *AwsCodeDeployCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.singleTask(ctx, m)
}

// CreatePerpetualTasksForNewDeployment implements PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment
func (c *AwsCodeDeployCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	return c.newDeployment(ctx, summaries, existing, m, codeDeployFromDeployment)
}

func codeDeployFromDeployment(summary *model.DeploymentSummary) (resourceGroup, bool) {
	switch summary.DeploymentInfo.(type) {
	case *model.AwsCodeDeployDeploymentInfo:
		return resourceGroup{}, true
	default:
		return nil, false
	}
}
