package instancesync

import (
	"context"
	"strings"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/hanfei1991/instancesync/model"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// CustomDeploymentCreator keeps one task per account, application,
// environment and mapping. A new deployment refreshes the parameters of the
// existing task in place instead of creating another one.
type CustomDeploymentCreator struct {
	baseCreator
}

// NewCustomDeploymentCreator creates a CustomDeploymentCreator.
func NewCustomDeploymentCreator(deps CreatorDeps) *CustomDeploymentCreator {
	return &CustomDeploymentCreator{
		baseCreator: newBaseCreator(deps, model.PerpetualTaskCustomDeploymentSync, "Custom deployment instance sync",
			HarnessAccountID, HarnessApplicationID, EnvIDKey, InfrastructureMappingID),
	}
}

// CreatePerpetualTasks implements PerpetualTaskCreator.CreatePerpetualTasks
func (c *CustomDeploymentCreator) CreatePerpetualTasks(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	if m == nil {
		return nil, cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	return c.singleTaskWith(ctx, m, resourceGroup{EnvIDKey: m.EnvID})
}

// CreatePerpetualTasksForNewDeployment implements
// PerpetualTaskCreator.CreatePerpetualTasksForNewDeployment. The most
// recent custom deployment supplies the task parameters. When a record
// already carries the identity it is reset and its id returned.
func (c *CustomDeploymentCreator) CreatePerpetualTasksForNewDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
) ([]string, error) {
	if m == nil {
		return nil, cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	summary, info := latestCustomDeployment(summaries)
	if info == nil {
		return nil, nil
	}

	params := clientParams(m, customGroup(m, info))
	id, _ := identityOf(params, c.identityKeys)
	rec, ok := represented(existing, c.identityKeys)[id]
	if !ok {
		return c.createTasks(ctx, m, []map[string]string{params})
	}

	err := c.tasks.ResetTask(ctx, m.AccountID, rec.UUID, &model.PerpetualTaskClientContext{ClientParams: params})
	if err != nil {
		c.metrics.failed(string(c.taskType))
		log.L().Warn("reset perpetual task failed",
			zap.String("account-id", m.AccountID),
			zap.String("task-id", rec.UUID),
			zap.String("deployment-id", summary.UUID),
			zap.Error(err))
		return nil, cerrors.Wrap(cerrors.ErrTaskResetFailed, err, rec.UUID)
	}
	c.metrics.reset(string(c.taskType))
	return []string{rec.UUID}, nil
}

func latestCustomDeployment(summaries []*model.DeploymentSummary) (*model.DeploymentSummary, *model.CustomDeploymentTypeInfo) {
	var (
		latest *model.DeploymentSummary
		info   *model.CustomDeploymentTypeInfo
	)
	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		custom, ok := summary.DeploymentInfo.(*model.CustomDeploymentTypeInfo)
		if !ok || custom == nil {
			continue
		}
		if latest == nil || summary.DeployedAt.After(latest.DeployedAt) {
			latest, info = summary, custom
		}
	}
	return latest, info
}

func customGroup(m *model.InfrastructureMapping, info *model.CustomDeploymentTypeInfo) resourceGroup {
	group := resourceGroup{
		EnvIDKey:               m.EnvID,
		InstanceFetchScriptKey: info.InstanceFetchScript,
	}
	if len(info.Tags) > 0 {
		group[TagsKey] = strings.Join(info.Tags, ",")
	}
	return group
}
