package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
)

// SpotinstAmiCreator creates one task per elastigroup.
type SpotinstAmiCreator struct {
	baseCreator
}

// NewSpotinstAmiCreator creates a SpotinstAmiCreator.
func NewSpotinstAmiCreator(deps CreatorDeps) *SpotinstAmiCreator {
	return &SpotinstAmiCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskSpotinstAmiInstanceSync, "Spotinst AMI instance sync",
			ElastigroupIDKey),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *SpotinstAmiCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.fullSync(ctx, m, elastigroupFromInstance)
}

// CreatePerpetualTasksForNewDeployment implements PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment
func (c *SpotinstAmiCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	return c.newDeployment(ctx, summaries, existing, m, elastigroupFromDeployment)
}

func elastigroupFromInstance(inst *model.Instance) (resourceGroup, bool) {
	switch info := inst.InstanceInfo.(type) {
	case *model.SpotinstAmiInstanceInfo:
		if info == nil || info.ElastigroupID == "" {
			return nil, false
		}
		return resourceGroup{ElastigroupIDKey: info.ElastigroupID}, true
	default:
		return nil, false
	}
}

func elastigroupFromDeployment(summary *model.DeploymentSummary) (resourceGroup, bool) {
	switch info := summary.DeploymentInfo.(type) {
	case *model.SpotinstAmiDeploymentInfo:
		if info == nil || info.ElastigroupID == "" {
			return nil, false
		}
		return resourceGroup{ElastigroupIDKey: info.ElastigroupID}, true
	default:
		return nil, false
	}
}
