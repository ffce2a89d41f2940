package instancesync

import (
	"strconv"
	"time"

	"github.com/hanfei1991/instancesync/model"
)

// client context keys shared by every provider
const (
	HarnessAccountID        = "harnessAccountId"
	HarnessApplicationID    = "harnessApplicationId"
	InfrastructureMappingID = "infrastructureMappingId"
)

// provider specific client context keys
const (
	AsgNameKey             = "asgName"
	FunctionNameKey        = "functionName"
	QualifierKey           = "qualifier"
	StartDateKey           = "startDate"
	ElastigroupIDKey       = "elastigroupId"
	VMSSIDKey              = "vmssId"
	ApplicationNameKey     = "applicationName"
	EnvIDKey               = "envId"
	InstanceFetchScriptKey = "instanceFetchScript"
	TagsKey                = "tags"
)

// Every instance sync task runs on the same schedule.
const (
	IntervalMinutes = 10
	TimeoutSeconds  = 30
)

// DefaultSchedule is the schedule of every task created here.
var DefaultSchedule = model.PerpetualTaskSchedule{
	Interval: IntervalMinutes * time.Minute,
	Timeout:  TimeoutSeconds * time.Second,
}

// resourceGroup holds the provider specific client params of one task.
type resourceGroup map[string]string

// clientParams merges the mapping's common params with group.
func clientParams(m *model.InfrastructureMapping, group resourceGroup) map[string]string {
	params := make(map[string]string, len(group)+3)
	params[HarnessAccountID] = m.AccountID
	params[HarnessApplicationID] = m.AppID
	params[InfrastructureMappingID] = m.UUID
	for k, v := range group {
		params[k] = v
	}
	return params
}

func unixMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixNano()/int64(time.Millisecond), 10)
}
