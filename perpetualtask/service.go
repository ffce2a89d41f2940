package perpetualtask

//go:generate mockgen -destination mock/mock_service.go -package mock github.com/hanfei1991/instancesync/perpetualtask Service

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/hanfei1991/instancesync/model"
	"github.com/hanfei1991/instancesync/pkg/autoid"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
	pkgOrm "github.com/hanfei1991/instancesync/pkg/orm"
	ormModel "github.com/hanfei1991/instancesync/pkg/orm/model"
)

// Service is the perpetual task registry.
type Service interface {
	// CreateTask registers a task and returns its id. When allowDuplicate is
	// false and a task of the same type and account already carries exactly
	// the same client params, the existing id is returned instead.
	CreateTask(
		ctx context.Context,
		taskType model.PerpetualTaskType,
		accountID string,
		clientContext *model.PerpetualTaskClientContext,
		schedule model.PerpetualTaskSchedule,
		allowDuplicate bool,
		description string,
	) (string, error)
	// ResetTask replaces the client context of a task. A nil context only
	// marks the task as refreshed.
	ResetTask(ctx context.Context, accountID, taskID string, clientContext *model.PerpetualTaskClientContext) error
	// ListTasks returns the tasks of one type in an account in creation order.
	ListTasks(ctx context.Context, accountID string, taskType model.PerpetualTaskType) ([]*model.PerpetualTaskRecord, error)
}

type registry struct {
	metaclient  pkgOrm.Client
	idAllocator autoid.Allocator
	clock       clock.Clock
}

// NewService creates a registry persisting tasks through metaclient.
func NewService(metaclient pkgOrm.Client) Service {
	return newServiceWithClock(metaclient, clock.New())
}

func newServiceWithClock(metaclient pkgOrm.Client, clk clock.Clock) *registry {
	return &registry{
		metaclient:  metaclient,
		idAllocator: autoid.NewTaskIDAllocator(),
		clock:       clk,
	}
}

func (r *registry) CreateTask(
	ctx context.Context,
	taskType model.PerpetualTaskType,
	accountID string,
	clientContext *model.PerpetualTaskClientContext,
	schedule model.PerpetualTaskSchedule,
	allowDuplicate bool,
	description string,
) (string, error) {
	if taskType == "" || accountID == "" {
		return "", cerrors.ErrInvalidArgument.GenWithStackByArgs("task type and account are required")
	}
	var params map[string]string
	if clientContext != nil {
		params = clientContext.ClientParams
	}

	if !allowDuplicate {
		existing, err := r.metaclient.QueryPerpetualTasks(ctx, accountID, string(taskType))
		if err != nil {
			return "", errors.Trace(err)
		}
		for _, task := range existing {
			if sameParams(task.StringParams(), params) {
				log.L().Debug("perpetual task already exists",
					zap.String("account-id", accountID),
					zap.String("task-type", string(taskType)),
					zap.String("task-id", task.TaskID))
				return task.TaskID, nil
			}
		}
	}

	now := r.clock.Now()
	task := &ormModel.PerpetualTask{
		Model: ormModel.Model{
			CreatedAt: now,
			UpdatedAt: now,
		},
		TaskID:           r.idAllocator.AllocID(),
		AccountID:        accountID,
		TaskType:         string(taskType),
		ClientParams:     ormModel.ToJSONMap(params),
		ContextUpdatedAt: now,
		IntervalSeconds:  int64(schedule.Interval / time.Second),
		TimeoutSeconds:   int64(schedule.Timeout / time.Second),
		Description:      description,
	}
	if err := r.metaclient.AddPerpetualTask(ctx, task); err != nil {
		return "", errors.Trace(err)
	}
	log.L().Info("perpetual task created",
		zap.String("account-id", accountID),
		zap.String("task-type", string(taskType)),
		zap.String("task-id", task.TaskID))
	return task.TaskID, nil
}

func (r *registry) ResetTask(
	ctx context.Context, accountID, taskID string, clientContext *model.PerpetualTaskClientContext,
) error {
	task, err := r.metaclient.GetPerpetualTaskByID(ctx, taskID)
	if err != nil {
		if pkgOrm.IsNotFoundError(err) {
			return cerrors.ErrTaskNotFound.GenWithStackByArgs(accountID, taskID)
		}
		return errors.Trace(err)
	}
	if task.AccountID != accountID {
		return cerrors.ErrTaskNotFound.GenWithStackByArgs(accountID, taskID)
	}

	now := r.clock.Now()
	if clientContext == nil {
		err = r.metaclient.TouchPerpetualTask(ctx, taskID, now)
	} else {
		err = r.metaclient.UpdatePerpetualTaskContext(ctx, taskID, ormModel.ToJSONMap(clientContext.ClientParams), now)
	}
	if err != nil {
		return cerrors.Wrap(cerrors.ErrTaskResetFailed, err, taskID)
	}
	log.L().Info("perpetual task reset",
		zap.String("account-id", accountID),
		zap.String("task-id", taskID),
		zap.Bool("context-replaced", clientContext != nil))
	return nil
}

func (r *registry) ListTasks(
	ctx context.Context, accountID string, taskType model.PerpetualTaskType,
) ([]*model.PerpetualTaskRecord, error) {
	tasks, err := r.metaclient.QueryPerpetualTasks(ctx, accountID, string(taskType))
	if err != nil {
		return nil, errors.Trace(err)
	}
	ret := make([]*model.PerpetualTaskRecord, 0, len(tasks))
	for _, task := range tasks {
		ret = append(ret, toRecord(task))
	}
	return ret, nil
}

func toRecord(task *ormModel.PerpetualTask) *model.PerpetualTaskRecord {
	return &model.PerpetualTaskRecord{
		UUID:      task.TaskID,
		AccountID: task.AccountID,
		TaskType:  model.PerpetualTaskType(task.TaskType),
		ClientContext: model.PerpetualTaskClientContext{
			ClientParams:       task.StringParams(),
			LastContextUpdated: task.ContextUpdatedAt,
		},
		Schedule: model.PerpetualTaskSchedule{
			Interval: time.Duration(task.IntervalSeconds) * time.Second,
			Timeout:  time.Duration(task.TimeoutSeconds) * time.Second,
		},
		TaskDescription: task.Description,
		CreatedAt:       task.CreatedAt,
		LastUpdatedAt:   task.UpdatedAt,
	}
}

func sameParams(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
