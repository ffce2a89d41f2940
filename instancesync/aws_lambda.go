package instancesync

import (
	"context"
	"time"

	"github.com/hanfei1991/instancesync/model"
)

// AwsLambdaCreator creates one task per function version. The context also
// records when that version was deployed.
type AwsLambdaCreator struct {
	baseCreator
}

// NewAwsLambdaCreator creates an AwsLambdaCreator.
func NewAwsLambdaCreator(deps CreatorDeps) *AwsLambdaCreator {
	return &AwsLambdaCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskAwsLambdaInstanceSync, "AWS Lambda instance sync",
			FunctionNameKey, QualifierKey),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *AwsLambdaCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.fullSync(ctx, m, lambdaFromInstance)
}

// CreatePerpetualTasksForNewDeployment implements PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment
func (c *AwsLambdaCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	return c.newDeployment(ctx, summaries, existing, m, lambdaFromDeployment)
}

func lambdaFromInstance(inst *model.Instance) (resourceGroup, bool) {
	switch info := inst.InstanceInfo.(type) {
	case *model.AwsLambdaInstanceInfo:
		if info == nil || info.FunctionName == "" {
			return nil, false
		}
		return lambdaGroup(info.FunctionName, info.Version, inst.LastDeployedAt), true
	default:
		return nil, false
	}
}

func lambdaFromDeployment(summary *model.DeploymentSummary) (resourceGroup, bool) {
	switch info := summary.DeploymentInfo.(type) {
	case *model.AwsLambdaDeploymentInfo:
		if info == nil || info.FunctionName == "" {
			return nil, false
		}
		return lambdaGroup(info.FunctionName, info.Version, summary.DeployedAt), true
	default:
		return nil, false
	}
}

// lambdaGroup leaves the start date out when the deployment time is unknown.
func lambdaGroup(functionName, qualifier string, deployedAt time.Time) resourceGroup {
	group := resourceGroup{
		FunctionNameKey: functionName,
		QualifierKey:    qualifier,
	}
	if !deployedAt.IsZero() {
		group[StartDateKey] = unixMillis(deployedAt)
	}
	return group
}
