package model

import "time"

// PerpetualTaskType names the reconciliation job a perpetual task runs.
type PerpetualTaskType string

// perpetual task types
const (
	PerpetualTaskAwsAmiInstanceSync        PerpetualTaskType = "AWS_AMI_INSTANCE_SYNC"
	PerpetualTaskAwsLambdaInstanceSync     PerpetualTaskType = "AWS_LAMBDA_INSTANCE_SYNC"
	PerpetualTaskAwsCodeDeployInstanceSync PerpetualTaskType = "AWS_CODE_DEPLOY_INSTANCE_SYNC"
	PerpetualTaskAwsSSHInstanceSync        PerpetualTaskType = "AWS_SSH_INSTANCE_SYNC"
	PerpetualTaskSpotinstAmiInstanceSync   PerpetualTaskType = "SPOT_INST_AMI_INSTANCE_SYNC"
	PerpetualTaskAzureVMSSInstanceSync     PerpetualTaskType = "AZURE_VMSS_INSTANCE_SYNC"
	PerpetualTaskCustomDeploymentSync      PerpetualTaskType = "CUSTOM_DEPLOYMENT_INSTANCE_SYNC"
	PerpetualTaskPcfInstanceSync           PerpetualTaskType = "PCF_INSTANCE_SYNC"
)

// PerpetualTaskClientContext is the identity payload attached to a task.
type PerpetualTaskClientContext struct {
	ClientParams       map[string]string `json:"client-params"`
	LastContextUpdated time.Time         `json:"last-context-updated"`
}

// Param returns the client param under key and whether it is present.
func (c *PerpetualTaskClientContext) Param(key string) (string, bool) {
	if c == nil || c.ClientParams == nil {
		return "", false
	}
	v, ok := c.ClientParams[key]
	return v, ok
}

// PerpetualTaskSchedule is how often a task runs and how long one run may
// take.
type PerpetualTaskSchedule struct {
	Interval time.Duration `json:"interval"`
	Timeout  time.Duration `json:"timeout"`
}

// PerpetualTaskRecord is a persisted scheduled task.
type PerpetualTaskRecord struct {
	UUID            string                     `json:"uuid"`
	AccountID       string                     `json:"account-id"`
	TaskType        PerpetualTaskType          `json:"task-type"`
	ClientContext   PerpetualTaskClientContext `json:"client-context"`
	Schedule        PerpetualTaskSchedule      `json:"schedule"`
	TaskDescription string                     `json:"task-description"`
	CreatedAt       time.Time                  `json:"created-at"`
	LastUpdatedAt   time.Time                  `json:"last-updated-at"`
}
