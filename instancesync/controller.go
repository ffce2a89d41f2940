package instancesync

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hanfei1991/instancesync/model"
	"github.com/hanfei1991/instancesync/pkg/featureflag"
)

// migration names the flags of an infrastructure mapping type whose
// instance state is moving from the iterator to perpetual tasks.
type migration struct {
	// moveFlag makes the perpetual task path authoritative.
	moveFlag featureflag.FeatureName
	// stopIteratorFlag turns the iterator off entirely.
	stopIteratorFlag featureflag.FeatureName
}

var migratingTypes = map[model.InfraMappingType]migration{
	model.InfraMappingPcf: {
		moveFlag:         featureflag.MovePcfInstanceSyncToPerpetualTask,
		stopIteratorFlag: featureflag.StopInstanceSyncViaIteratorForPcf,
	},
}

type decisionKey struct {
	flow        InstanceSyncFlow
	migrating   bool
	flagEnabled bool
}

// canUpdateDbTable answers which flow may write instance state. The flag
// column is always false for types that are not migrating.
var canUpdateDbTable = map[decisionKey]bool{
	{FlowNewDeployment, false, false}: true,
	{FlowNewDeployment, true, false}:  true,
	{FlowNewDeployment, true, true}:   true,

	{FlowIteratorInstanceSync, false, false}: true,
	{FlowIteratorInstanceSync, true, false}:  true,
	{FlowIteratorInstanceSync, true, true}:   false,

	{FlowPerpetualTask, false, false}: true,
	{FlowPerpetualTask, true, false}:  false,
	{FlowPerpetualTask, true, true}:   true,
}

// ControllerDeps are the collaborators of a Controller.
type ControllerDeps struct {
	dig.In

	Flags    featureflag.Service
	Creators *CreatorRegistry
	Mappings InfraMappingLister
	Records  TaskRecordLister
	Metrics  *Metrics      `optional:"true"`
	Limiter  *rate.Limiter `optional:"true"`
}

// Controller arbitrates between the iterator and the perpetual task paths
// and drives the rollout of perpetual tasks.
//
// It holds no per-call state. Callers are expected to serialize calls that
// concern the same infrastructure mapping.
type Controller struct {
	flags    featureflag.Service
	creators *CreatorRegistry
	mappings InfraMappingLister
	records  TaskRecordLister
	metrics  *Metrics
	// limiter paces backfill calls to the task registry.
	limiter *rate.Limiter
}

// NewController creates a Controller. Without a limiter backfill is not
// throttled.
func NewController(deps ControllerDeps) *Controller {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Controller{
		flags:    deps.Flags,
		creators: deps.Creators,
		mappings: deps.Mappings,
		records:  deps.Records,
		metrics:  deps.Metrics,
		limiter:  limiter,
	}
}

// CanUpdateDb reports whether flow may write the instance state of m.
func (c *Controller) CanUpdateDb(
	ctx context.Context, flow InstanceSyncFlow, m *model.InfrastructureMapping, handlerName string,
) bool {
	key := decisionKey{flow: flow}
	if m != nil {
		if mig, ok := migratingTypes[m.InfraMappingType]; ok {
			key.migrating = true
			if flow != FlowNewDeployment {
				key.flagEnabled = c.isEnabled(ctx, mig.moveFlag, m.AccountID)
			}
		}
	}
	allowed := canUpdateDbTable[key]
	c.metrics.decided(flow, allowed)

	logger := log.L().With(zap.String("flow", string(flow)), zap.String("handler", handlerName))
	if m != nil {
		logger = logger.With(
			zap.String("account-id", m.AccountID),
			zap.String("infra-mapping-id", m.UUID),
			zap.String("infra-mapping-type", string(m.InfraMappingType)))
	}
	logger.Debug("instance sync db update decision",
		zap.Bool("migrating", key.migrating),
		zap.Bool("flag-enabled", key.flagEnabled),
		zap.Bool("allowed", allowed))
	return allowed
}

// ShouldSkipIteratorInstanceSync reports whether the iterator must leave m
// alone. Only a migrating type whose account has the stop-iterator flag on
// is skipped.
func (c *Controller) ShouldSkipIteratorInstanceSync(ctx context.Context, m *model.InfrastructureMapping) bool {
	if m == nil {
		return false
	}
	mig, ok := migratingTypes[m.InfraMappingType]
	if !ok {
		return false
	}
	return c.isEnabled(ctx, mig.stopIteratorFlag, m.AccountID)
}

// EnablePerpetualTaskForAccount backfills perpetual tasks for every mapping
// of infraMappingType in the account. It reports whether any mapping was
// enabled. Failures of single mappings do not stop the others and are
// returned together.
func (c *Controller) EnablePerpetualTaskForAccount(
	ctx context.Context, accountID string, infraMappingType model.InfraMappingType,
) (bool, error) {
	logger := log.L().With(
		zap.String("account-id", accountID),
		zap.String("infra-mapping-type", string(infraMappingType)))

	creator, ok := c.creators.Creator(infraMappingType)
	if !ok {
		logger.Info("no perpetual task creator registered, skip enabling")
		return false, nil
	}
	mappings, err := c.mappings.ListInfraMappings(ctx, accountID, infraMappingType)
	if err != nil {
		return false, errors.Trace(err)
	}

	var (
		enabled bool
		errs    error
	)
	for _, m := range mappings {
		if err := c.limiter.Wait(ctx); err != nil {
			return enabled, multierr.Append(errs, errors.Trace(err))
		}
		ids, err := creator.CreatePerpetualTasks(ctx, m)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		if err == nil || len(ids) > 0 {
			enabled = true
		}
		logger.Info("perpetual tasks enabled for infra mapping",
			zap.String("infra-mapping-id", m.UUID),
			zap.Strings("task-ids", ids),
			zap.Error(err))
	}
	return enabled, errs
}

type deploymentGroup struct {
	accountID      string
	infraMappingID string
	summaries      []*model.DeploymentSummary
}

// CreatePerpetualTaskForNewDeployment hands the deployments to the creator
// of infraMappingType, one call per infrastructure mapping. It reports
// false without error when the list is empty or no creator is registered.
func (c *Controller) CreatePerpetualTaskForNewDeployment(
	ctx context.Context, infraMappingType model.InfraMappingType, summaries []*model.DeploymentSummary,
) (bool, error) {
	if len(summaries) == 0 {
		return false, nil
	}
	creator, ok := c.creators.Creator(infraMappingType)
	if !ok {
		log.L().Debug("no perpetual task creator registered",
			zap.String("infra-mapping-type", string(infraMappingType)))
		return false, nil
	}
	mig, migrating := migratingTypes[infraMappingType]

	var (
		dispatched bool
		errs       error
	)
	for _, group := range groupByInfraMapping(summaries) {
		logger := log.L().With(
			zap.String("account-id", group.accountID),
			zap.String("infra-mapping-id", group.infraMappingID))
		if migrating && !c.isEnabled(ctx, mig.moveFlag, group.accountID) {
			logger.Debug("perpetual tasks not enabled for account, skip")
			continue
		}

		m, err := c.mappings.GetInfraMapping(ctx, group.accountID, group.infraMappingID)
		if err != nil {
			errs = multierr.Append(errs, errors.Trace(err))
			continue
		}
		records, err := c.records.ListTasks(ctx, group.accountID, creator.TaskType())
		if err != nil {
			errs = multierr.Append(errs, errors.Trace(err))
			continue
		}

		dispatched = true
		ids, err := creator.CreatePerpetualTasksForNewDeployment(ctx, group.summaries, recordsOfMapping(records, m.UUID), m)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		logger.Info("perpetual tasks created for new deployment",
			zap.Strings("task-ids", ids), zap.Error(err))
	}
	return dispatched, errs
}

func (c *Controller) isEnabled(ctx context.Context, name featureflag.FeatureName, accountID string) bool {
	enabled, err := c.flags.IsEnabled(ctx, name, accountID)
	if err != nil {
		log.L().Warn("feature flag unavailable, treat as disabled",
			zap.String("flag", string(name)),
			zap.String("account-id", accountID),
			zap.Error(err))
		return false
	}
	return enabled
}

// groupByInfraMapping splits summaries by account and mapping, keeping the
// order in which mappings first appear.
func groupByInfraMapping(summaries []*model.DeploymentSummary) []*deploymentGroup {
	type groupKey struct{ accountID, infraMappingID string }
	index := make(map[groupKey]*deploymentGroup)
	var groups []*deploymentGroup
	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		key := groupKey{summary.AccountID, summary.InfraMappingID}
		group, ok := index[key]
		if !ok {
			group = &deploymentGroup{accountID: key.accountID, infraMappingID: key.infraMappingID}
			index[key] = group
			groups = append(groups, group)
		}
		group.summaries = append(group.summaries, summary)
	}
	return groups
}

func recordsOfMapping(records []*model.PerpetualTaskRecord, infraMappingID string) []*model.PerpetualTaskRecord {
	ret := make([]*model.PerpetualTaskRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if id, _ := rec.ClientContext.Param(InfrastructureMappingID); id == infraMappingID {
			ret = append(ret, rec)
		}
	}
	return ret
}
