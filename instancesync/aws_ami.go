package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
)

// AwsAmiCreator creates one task per auto scaling group.
type AwsAmiCreator struct {
	baseCreator
}

// NewAwsAmiCreator creates an AwsAmiCreator.
func NewAwsAmiCreator(deps CreatorDeps) *AwsAmiCreator {
	return &AwsAmiCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskAwsAmiInstanceSync, "AWS AMI instance sync", AsgNameKey),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *AwsAmiCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.fullSync(ctx, m, asgFromInstance)
}

// CreatePerpetualTasksForNewDeployment implements PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment
func (c *AwsAmiCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	return c.newDeployment(ctx, summaries, existing, m, asgFromDeployment)
}

func asgFromInstance(inst *model.Instance) (resourceGroup, bool) {
	switch info := inst.InstanceInfo.(type) {
	case *model.AutoScalingGroupInstanceInfo:
		if info == nil || info.AutoScalingGroupName == "" {
			return nil, false
		}
		return resourceGroup{AsgNameKey: info.AutoScalingGroupName}, true
	default:
		return nil, false
	}
}

func asgFromDeployment(summary *model.DeploymentSummary) (resourceGroup, bool) {
	switch info := summary.DeploymentInfo.(type) {
	case *model.AwsAutoScalingGroupDeploymentInfo:
		if info == nil || info.AutoScalingGroupName == "" {
			return nil, false
		}
		return resourceGroup{AsgNameKey: info.AutoScalingGroupName}, true
	default:
		return nil, false
	}
}
