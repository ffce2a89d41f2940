package instancesync

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hanfei1991/instancesync/model"
	"github.com/hanfei1991/instancesync/perpetualtask"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// PerpetualTaskCreator creates the perpetual tasks of one provider.
//
// Both methods attempt every resource group independently. A failure for
// one group is returned, aggregated with the others, next to the ids of
// the tasks that were created.
type PerpetualTaskCreator interface {
	TaskType() model.PerpetualTaskType

	// CreatePerpetualTasks makes sure every distinct resource group among
	// the live instances of the mapping has one task, and returns their ids.
	CreatePerpetualTasks(ctx context.Context, infraMapping *model.InfrastructureMapping) ([]string, error)

	// CreatePerpetualTasksForNewDeployment creates a task for every resource
	// group of the deployments not yet represented by existingRecords.
	CreatePerpetualTasksForNewDeployment(
		ctx context.Context,
		deploymentSummaries []*model.DeploymentSummary,
		existingRecords []*model.PerpetualTaskRecord,
		infraMapping *model.InfrastructureMapping,
	) ([]string, error)
}

// CreatorDeps are the collaborators shared by all creators.
type CreatorDeps struct {
	dig.In

	Tasks     perpetualtask.Service
	Instances InstanceLister
	Metrics   *Metrics `optional:"true"`
}

type (
	instanceExtractor   func(inst *model.Instance) (resourceGroup, bool)
	deploymentExtractor func(summary *model.DeploymentSummary) (resourceGroup, bool)
)

type baseCreator struct {
	taskType     model.PerpetualTaskType
	description  string
	identityKeys []string

	tasks     perpetualtask.Service
	instances InstanceLister
	metrics   *Metrics
}

func newBaseCreator(
	deps CreatorDeps, taskType model.PerpetualTaskType, description string, identityKeys ...string,
) baseCreator {
	return baseCreator{
		taskType:     taskType,
		description:  description,
		identityKeys: identityKeys,
		tasks:        deps.Tasks,
		instances:    deps.Instances,
		metrics:      deps.Metrics,
	}
}

func (b *baseCreator) TaskType() model.PerpetualTaskType {
	return b.taskType
}

func (b *baseCreator) fullSync(
	ctx context.Context, m *model.InfrastructureMapping, extract instanceExtractor,
) ([]string, error) {
	if m == nil {
		return nil, cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	instances, err := b.instances.GetInstancesForAppAndInframapping(ctx, m.AppID, m.UUID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	candidates := make([]map[string]string, 0, len(instances))
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		group, ok := extract(inst)
		if !ok {
			log.L().Debug("skip instance of another provider",
				zap.String("task-type", string(b.taskType)),
				zap.String("instance-id", inst.UUID))
			continue
		}
		candidates = append(candidates, clientParams(m, group))
	}
	return b.ensureTasks(ctx, m, distinct(candidates, b.identityKeys))
}

// ensureTasks returns the id of the live task of every candidate identity,
// creating the tasks the mapping does not have yet. Existing tasks keep
// their context.
func (b *baseCreator) ensureTasks(
	ctx context.Context, m *model.InfrastructureMapping, candidates []map[string]string,
) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	records, err := b.tasks.ListTasks(ctx, m.AccountID, b.taskType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	existing := represented(recordsOfMapping(records, m.UUID), b.identityKeys)

	var (
		ids     []string
		pending []map[string]string
	)
	for _, params := range candidates {
		id, _ := identityOf(params, b.identityKeys)
		if rec, ok := existing[id]; ok {
			ids = append(ids, rec.UUID)
			continue
		}
		pending = append(pending, params)
	}
	created, errs := b.createTasks(ctx, m, pending)
	return append(ids, created...), errs
}

func (b *baseCreator) newDeployment(
	ctx context.Context,
	summaries []*model.DeploymentSummary,
	existing []*model.PerpetualTaskRecord,
	m *model.InfrastructureMapping,
	extract deploymentExtractor,
) ([]string, error) {
	if m == nil {
		return nil, cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	candidates := b.fromDeployments(summaries, m, extract)
	return b.createTasks(ctx, m, missing(candidates, existing, b.identityKeys))
}

func (b *baseCreator) fromDeployments(
	summaries []*model.DeploymentSummary, m *model.InfrastructureMapping, extract deploymentExtractor,
) []map[string]string {
	candidates := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		group, ok := extract(summary)
		if !ok {
			log.L().Debug("skip deployment of another provider",
				zap.String("task-type", string(b.taskType)),
				zap.String("deployment-id", summary.UUID))
			continue
		}
		candidates = append(candidates, clientParams(m, group))
	}
	return candidates
}

// singleTask makes sure the one task that stands for the whole mapping
// exists.
func (b *baseCreator) singleTask(ctx context.Context, m *model.InfrastructureMapping) ([]string, error) {
	return b.singleTaskWith(ctx, m, nil)
}

func (b *baseCreator) singleTaskWith(ctx context.Context, m *model.InfrastructureMapping, group resourceGroup) ([]string, error) {
	if m == nil {
		return nil, cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	return b.ensureTasks(ctx, m, []map[string]string{clientParams(m, group)})
}

func (b *baseCreator) createTasks(
	ctx context.Context, m *model.InfrastructureMapping, paramsList []map[string]string,
) ([]string, error) {
	var (
		ids  []string
		errs error
	)
	for _, params := range paramsList {
		id, err := b.createTask(ctx, m, params)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errs
}

func (b *baseCreator) createTask(
	ctx context.Context, m *model.InfrastructureMapping, params map[string]string,
) (string, error) {
	id, _ := identityOf(params, b.identityKeys)
	clientContext := &model.PerpetualTaskClientContext{ClientParams: params}
	taskID, err := b.tasks.CreateTask(ctx, b.taskType, m.AccountID, clientContext, DefaultSchedule, false, b.description)
	if err != nil {
		b.metrics.failed(string(b.taskType))
		log.L().Warn("create perpetual task failed",
			zap.String("task-type", string(b.taskType)),
			zap.String("account-id", m.AccountID),
			zap.String("infra-mapping-id", m.UUID),
			zap.String("identity", displayIdentity(id)),
			zap.Error(err))
		return "", cerrors.Wrap(cerrors.ErrTaskCreationFailed, err, b.taskType, displayIdentity(id))
	}
	b.metrics.created(string(b.taskType))
	return taskID, nil
}
