package inventory

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/hanfei1991/instancesync/model"
	"github.com/hanfei1991/instancesync/pkg/adapter"
	"github.com/hanfei1991/instancesync/pkg/dataset"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	"github.com/hanfei1991/instancesync/pkg/meta/kvclient"
)

// Inventory keeps infrastructure mappings and the live instances known for
// them. Mappings are scoped by account, instances by infrastructure mapping.
type Inventory struct {
	cli kvclient.KV
}

// New creates an Inventory over cli.
func New(cli kvclient.KV) *Inventory {
	return &Inventory{cli: cli}
}

func (i *Inventory) mappings(accountID string) *dataset.DataSet[model.InfrastructureMapping, *model.InfrastructureMapping] {
	return dataset.NewDataSet[model.InfrastructureMapping, *model.InfrastructureMapping](i.cli, adapter.InfraMappingKey, accountID)
}

func (i *Inventory) instances(infraMappingID string) *dataset.DataSet[model.Instance, *model.Instance] {
	return dataset.NewDataSet[model.Instance, *model.Instance](i.cli, adapter.InstanceKey, infraMappingID)
}

// UpsertInfraMapping stores mapping under its account.
func (i *Inventory) UpsertInfraMapping(ctx context.Context, mapping *model.InfrastructureMapping) error {
	if mapping == nil {
		return cerrors.ErrInfraMappingEmpty.GenWithStackByArgs()
	}
	if !mapping.InfraMappingType.Valid() {
		return cerrors.ErrInvalidInfraType.GenWithStackByArgs(mapping.InfraMappingType)
	}
	return errors.Trace(i.mappings(mapping.AccountID).Upsert(ctx, mapping))
}

// GetInfraMapping returns one mapping. A missing mapping is reported as
// ErrDatasetEntryNotFound.
func (i *Inventory) GetInfraMapping(ctx context.Context, accountID, infraMappingID string) (*model.InfrastructureMapping, error) {
	return i.mappings(accountID).Get(ctx, infraMappingID)
}

// DeleteInfraMapping removes a mapping and every instance recorded for it.
func (i *Inventory) DeleteInfraMapping(ctx context.Context, accountID, infraMappingID string) error {
	instances, err := i.instances(infraMappingID).LoadAll(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	for _, inst := range instances {
		if err := i.instances(infraMappingID).Delete(ctx, inst.ID()); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(i.mappings(accountID).Delete(ctx, infraMappingID))
}

// ListInfraMappings returns the account's mappings of the given type across
// all of its applications.
func (i *Inventory) ListInfraMappings(
	ctx context.Context, accountID string, infraMappingType model.InfraMappingType,
) ([]*model.InfrastructureMapping, error) {
	all, err := i.mappings(accountID).LoadAll(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrInfraMappingListFailed, err, accountID)
	}
	ret := make([]*model.InfrastructureMapping, 0, len(all))
	for _, m := range all {
		if m.InfraMappingType == infraMappingType {
			ret = append(ret, m)
		}
	}
	return ret, nil
}

// UpsertInstance records inst under its infrastructure mapping.
func (i *Inventory) UpsertInstance(ctx context.Context, inst *model.Instance) error {
	if inst == nil || inst.InfraMappingID == "" {
		return cerrors.ErrInvalidArgument.GenWithStackByArgs("instance without infrastructure mapping")
	}
	return errors.Trace(i.instances(inst.InfraMappingID).Upsert(ctx, inst))
}

// DeleteInstance forgets one instance.
func (i *Inventory) DeleteInstance(ctx context.Context, infraMappingID, instanceID string) error {
	return errors.Trace(i.instances(infraMappingID).Delete(ctx, instanceID))
}

// GetInstancesForAppAndInframapping lists the live instances of a mapping.
// Instances recorded for another application are left out.
func (i *Inventory) GetInstancesForAppAndInframapping(
	ctx context.Context, appID, infraMappingID string,
) ([]*model.Instance, error) {
	all, err := i.instances(infraMappingID).LoadAll(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrInstanceListFailed, err, appID, infraMappingID)
	}
	ret := make([]*model.Instance, 0, len(all))
	for _, inst := range all {
		if inst.AppID != appID {
			log.L().Debug("instance belongs to another app",
				zap.String("instance-id", inst.UUID),
				zap.String("app-id", inst.AppID),
				zap.String("infra-mapping-id", infraMappingID))
			continue
		}
		ret = append(ret, inst)
	}
	return ret, nil
}
