package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
)

// PcfCreator creates one task per PCF application. The controller only
// dispatches to it once the account has moved PCF to perpetual tasks.
type PcfCreator struct {
	baseCreator
}

// NewPcfCreator creates a PcfCreator.
func NewPcfCreator(deps CreatorDeps) *PcfCreator {
	return &PcfCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskPcfInstanceSync, "PCF instance sync",
			ApplicationNameKey),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *PcfCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.fullSync(ctx, m, pcfFromInstance)
}

// CreatePerpetualTasksForNewDeployment implements PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment
func (c *PcfCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	return c.newDeployment(ctx, summaries, existing, m, pcfFromDeployment)
}

func pcfFromInstance(inst *model.Instance) (resourceGroup, bool) {
	switch info := inst.InstanceInfo.(type) {
	case *model.PcfInstanceInfo:
		if info == nil || info.PcfApplicationName == "" {
			return nil, false
		}
		return resourceGroup{ApplicationNameKey: info.PcfApplicationName}, true
	default:
		return nil, false
	}
}

func pcfFromDeployment(summary *model.DeploymentSummary) (resourceGroup, bool) {
	switch info := summary.DeploymentInfo.(type) {
	case *model.PcfDeploymentInfo:
		if info == nil || info.ApplicationName == "" {
			return nil, false
		}
		return resourceGroup{ApplicationNameKey: info.ApplicationName}, true
	default:
		return nil, false
	}
}
