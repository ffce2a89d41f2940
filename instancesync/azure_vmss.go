package instancesync

import (
	"context"

	"github.com/hanfei1991/instancesync/model"
)

// AzureVMSSCreator creates one task per virtual machine scale set. For a
// new deployment the scale set named by the deployment is used.
type AzureVMSSCreator struct {
	baseCreator
}

// NewAzureVMSSCreator creates an AzureVMSSCreator.
func NewAzureVMSSCreator(deps CreatorDeps) *AzureVMSSCreator {
	return &AzureVMSSCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskAzureVMSSInstanceSync, "Azure VMSS instance sync",
			VMSSIDKey),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *AzureVMSSCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return c.fullSync(ctx, m, vmssFromInstance)
}

// CreatePerpetualTasksForNewDeployment implements PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment
func (c *AzureVMSSCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	return c.newDeployment(ctx, summaries, existing, m, vmssFromDeployment)
}

func vmssFromInstance(inst *model.Instance) (resourceGroup, bool) {
	switch info := inst.InstanceInfo.(type) {
	case *model.AzureVMSSInstanceInfo:
		if info == nil || info.VMSSID == "" {
			return nil, false
		}
		return resourceGroup{VMSSIDKey: info.VMSSID}, true
	default:
		return nil, false
	}
}

func vmssFromDeployment(summary *model.DeploymentSummary) (resourceGroup, bool) {
	switch info := summary.DeploymentInfo.(type) {
	case *model.AzureVMSSDeploymentInfo:
		if info == nil || info.VMSSID == "" {
			return nil, false
		}
		return resourceGroup{VMSSIDKey: info.VMSSID}, true
	default:
		return nil, false
	}
}
