package model

import (
	"encoding/json"
	"time"

	"github.com/pingcap/errors"

	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// DeploymentInfoKind tags a DeploymentInfo variant.
type DeploymentInfoKind string

// deployment info kinds
const (
	DeploymentInfoAwsAutoScalingGroup DeploymentInfoKind = "AWS_AUTO_SCALING_GROUP"
	DeploymentInfoAwsLambda           DeploymentInfoKind = "AWS_LAMBDA"
	DeploymentInfoAwsCodeDeploy       DeploymentInfoKind = "AWS_CODE_DEPLOY"
	DeploymentInfoAwsSSH              DeploymentInfoKind = "AWS_SSH"
	DeploymentInfoSpotinstAmi         DeploymentInfoKind = "SPOTINST_AMI"
	DeploymentInfoAzureVMSS           DeploymentInfoKind = "AZURE_VMSS"
	DeploymentInfoPcf                 DeploymentInfoKind = "PCF"
	DeploymentInfoCustom              DeploymentInfoKind = "CUSTOM_DEPLOYMENT_TYPE"
)

// DeploymentInfo is the closed set of provider specific deployment details.
type DeploymentInfo interface {
	Kind() DeploymentInfoKind
	isDeploymentInfo()
}

// AwsAutoScalingGroupDeploymentInfo names the ASG a deployment resized.
type AwsAutoScalingGroupDeploymentInfo struct {
	AutoScalingGroupName string `json:"auto-scaling-group-name"`
}

// AwsLambdaDeploymentInfo names the published function version.
type AwsLambdaDeploymentInfo struct {
	FunctionName string `json:"function-name"`
	Version      string `json:"version"`
}

// AwsCodeDeployDeploymentInfo carries the CodeDeploy deployment id.
type AwsCodeDeployDeploymentInfo struct {
	DeploymentID string `json:"deployment-id"`
}

// AwsSSHDeploymentInfo carries nothing; the mapping is the identity.
type AwsSSHDeploymentInfo struct{}

// SpotinstAmiDeploymentInfo names the elastigroup a deployment created.
type SpotinstAmiDeploymentInfo struct {
	ElastigroupID   string `json:"elastigroup-id"`
	ElastigroupName string `json:"elastigroup-name"`
}

// AzureVMSSDeploymentInfo names the scale set a deployment created.
type AzureVMSSDeploymentInfo struct {
	VMSSID   string `json:"vmss-id"`
	VMSSName string `json:"vmss-name"`
}

// PcfDeploymentInfo names the PCF application a deployment pushed.
type PcfDeploymentInfo struct {
	ApplicationName string `json:"application-name"`
	ApplicationGUID string `json:"application-guid"`
}

// CustomDeploymentTypeInfo carries the instance fetch script of a custom
// deployment template and its last output.
type CustomDeploymentTypeInfo struct {
	InstanceFetchScript string   `json:"instance-fetch-script"`
	ScriptOutput        string   `json:"script-output"`
	Tags                []string `json:"tags,omitempty"`
}

// Kind implements DeploymentInfo.
func (*AwsAutoScalingGroupDeploymentInfo) Kind() DeploymentInfoKind {
	return DeploymentInfoAwsAutoScalingGroup
}

// Kind implements DeploymentInfo.
func (*AwsLambdaDeploymentInfo) Kind() DeploymentInfoKind { return DeploymentInfoAwsLambda }

// Kind implements DeploymentInfo.
func (*AwsCodeDeployDeploymentInfo) Kind() DeploymentInfoKind { return DeploymentInfoAwsCodeDeploy }

// Kind implements DeploymentInfo.
func (*AwsSSHDeploymentInfo) Kind() DeploymentInfoKind { return DeploymentInfoAwsSSH }

// Kind implements DeploymentInfo.
func (*SpotinstAmiDeploymentInfo) Kind() DeploymentInfoKind { return DeploymentInfoSpotinstAmi }

// Kind implements DeploymentInfo.
func (*AzureVMSSDeploymentInfo) Kind() DeploymentInfoKind { return DeploymentInfoAzureVMSS }

// Kind implements DeploymentInfo.
func (*PcfDeploymentInfo) Kind() DeploymentInfoKind { return DeploymentInfoPcf }

// Kind implements DeploymentInfo.
func (*CustomDeploymentTypeInfo) Kind() DeploymentInfoKind { return DeploymentInfoCustom }

func (*AwsAutoScalingGroupDeploymentInfo) isDeploymentInfo() {}
func (*AwsLambdaDeploymentInfo) isDeploymentInfo()           {}
func (*AwsCodeDeployDeploymentInfo) isDeploymentInfo()       {}
func (*AwsSSHDeploymentInfo) isDeploymentInfo()              {}
func (*SpotinstAmiDeploymentInfo) isDeploymentInfo()         {}
func (*AzureVMSSDeploymentInfo) isDeploymentInfo()           {}
func (*PcfDeploymentInfo) isDeploymentInfo()                 {}
func (*CustomDeploymentTypeInfo) isDeploymentInfo()          {}

var deploymentInfoFactories = map[DeploymentInfoKind]func() DeploymentInfo{
	DeploymentInfoAwsAutoScalingGroup: func() DeploymentInfo { return &AwsAutoScalingGroupDeploymentInfo{} },
	DeploymentInfoAwsLambda:           func() DeploymentInfo { return &AwsLambdaDeploymentInfo{} },
	DeploymentInfoAwsCodeDeploy:       func() DeploymentInfo { return &AwsCodeDeployDeploymentInfo{} },
	DeploymentInfoAwsSSH:              func() DeploymentInfo { return &AwsSSHDeploymentInfo{} },
	DeploymentInfoSpotinstAmi:         func() DeploymentInfo { return &SpotinstAmiDeploymentInfo{} },
	DeploymentInfoAzureVMSS:           func() DeploymentInfo { return &AzureVMSSDeploymentInfo{} },
	DeploymentInfoPcf:                 func() DeploymentInfo { return &PcfDeploymentInfo{} },
	DeploymentInfoCustom:              func() DeploymentInfo { return &CustomDeploymentTypeInfo{} },
}

// DeploymentSummary is one completed deployment action. It is consumed once
// by the perpetual task creators.
type DeploymentSummary struct {
	UUID                string         `json:"uuid"`
	AccountID           string         `json:"account-id"`
	AppID               string         `json:"app-id"`
	EnvID               string         `json:"env-id"`
	InfraMappingID      string         `json:"infra-mapping-id"`
	WorkflowExecutionID string         `json:"workflow-execution-id"`
	DeployedAt          time.Time      `json:"deployed-at"`
	DeploymentInfo      DeploymentInfo `json:"-"`
}

type deploymentSummaryAlias DeploymentSummary

type deploymentSummaryJSON struct {
	*deploymentSummaryAlias
	InfoKind DeploymentInfoKind `json:"info-kind,omitempty"`
	Info     json.RawMessage    `json:"info,omitempty"`
}

// MarshalJSON encodes the DeploymentInfo together with its kind tag.
func (d *DeploymentSummary) MarshalJSON() ([]byte, error) {
	out := deploymentSummaryJSON{deploymentSummaryAlias: (*deploymentSummaryAlias)(d)}
	if d.DeploymentInfo != nil {
		raw, err := json.Marshal(d.DeploymentInfo)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out.InfoKind = d.DeploymentInfo.Kind()
		out.Info = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the DeploymentInfo variant named by the kind tag.
func (d *DeploymentSummary) UnmarshalJSON(data []byte) error {
	in := deploymentSummaryJSON{deploymentSummaryAlias: (*deploymentSummaryAlias)(d)}
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Trace(err)
	}
	if in.InfoKind == "" {
		d.DeploymentInfo = nil
		return nil
	}
	factory, ok := deploymentInfoFactories[in.InfoKind]
	if !ok {
		return cerrors.ErrUnknownInfoKind.GenWithStackByArgs(in.InfoKind)
	}
	info := factory()
	if err := json.Unmarshal(in.Info, info); err != nil {
		return errors.Trace(err)
	}
	d.DeploymentInfo = info
	return nil
}
