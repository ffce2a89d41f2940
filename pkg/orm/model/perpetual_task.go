package model

import (
	"time"

	"gorm.io/datatypes"
)

// PerpetualTask is the table row of a perpetual task record.
type PerpetualTask struct {
	Model
	TaskID           string            `json:"task-id" gorm:"column:task_id;type:varchar(64);uniqueIndex:uidx_tid;not null"`
	AccountID        string            `json:"account-id" gorm:"column:account_id;type:varchar(64);index:idx_account_type,priority:1;not null"`
	TaskType         string            `json:"task-type" gorm:"column:task_type;type:varchar(64);index:idx_account_type,priority:2;not null"`
	ClientParams     datatypes.JSONMap `json:"client-params" gorm:"column:client_params"`
	ContextUpdatedAt time.Time         `json:"context-updated-at" gorm:"column:context_updated_at"`
	IntervalSeconds  int64             `json:"interval-seconds" gorm:"column:interval_seconds"`
	TimeoutSeconds   int64             `json:"timeout-seconds" gorm:"column:timeout_seconds"`
	Description      string            `json:"description" gorm:"column:description;type:varchar(256)"`
}

// TableName implements gorm's tabler
func (PerpetualTask) TableName() string {
	return "perpetual_tasks"
}

// ToJSONMap converts string params to a JSON column value.
func ToJSONMap(params map[string]string) datatypes.JSONMap {
	ret := make(datatypes.JSONMap, len(params))
	for k, v := range params {
		ret[k] = v
	}
	return ret
}

// StringParams converts the JSON column back to string params. Non-string
// values are dropped.
func (t *PerpetualTask) StringParams() map[string]string {
	ret := make(map[string]string, len(t.ClientParams))
	for k, v := range t.ClientParams {
		if s, ok := v.(string); ok {
			ret[k] = s
		}
	}
	return ret
}
