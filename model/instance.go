package model

import (
	"encoding/json"
	"time"

	"github.com/pingcap/errors"

	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// InstanceType is the coarse kind of a live instance.
type InstanceType string

// instance types
const (
	InstanceTypeEc2Cloud         InstanceType = "EC2_CLOUD_INSTANCE"
	InstanceTypeAwsLambda        InstanceType = "AWS_LAMBDA_INSTANCE"
	InstanceTypeAzureVMSS        InstanceType = "AZURE_VMSS_INSTANCE"
	InstanceTypePcf              InstanceType = "PCF_INSTANCE"
	InstanceTypeKubernetes       InstanceType = "KUBERNETES_CONTAINER_INSTANCE"
	InstanceTypeCustomDeployment InstanceType = "CUSTOM_DEPLOYMENT_INSTANCE"
)

// InstanceInfoKind tags an InstanceInfo variant.
type InstanceInfoKind string

// instance info kinds
const (
	InstanceInfoEc2              InstanceInfoKind = "EC2"
	InstanceInfoAutoScalingGroup InstanceInfoKind = "AUTO_SCALING_GROUP"
	InstanceInfoAwsLambda        InstanceInfoKind = "AWS_LAMBDA"
	InstanceInfoCodeDeploy       InstanceInfoKind = "CODE_DEPLOY"
	InstanceInfoSpotinstAmi      InstanceInfoKind = "SPOTINST_AMI"
	InstanceInfoAzureVMSS        InstanceInfoKind = "AZURE_VMSS"
	InstanceInfoPcf              InstanceInfoKind = "PCF"
	InstanceInfoCustomDeployment InstanceInfoKind = "CUSTOM_DEPLOYMENT"
	InstanceInfoK8sPod           InstanceInfoKind = "K8S_POD"
)

// InstanceInfo is the closed set of provider specific instance details.
// Only the types in this package implement it.
type InstanceInfo interface {
	Kind() InstanceInfoKind
	isInstanceInfo()
}

// Ec2InstanceInfo is a plain EC2 host that belongs to no scaling group.
type Ec2InstanceInfo struct {
	Ec2InstanceID string `json:"ec2-instance-id"`
	Hostname      string `json:"hostname"`
}

// AutoScalingGroupInstanceInfo is an EC2 host launched by an ASG.
type AutoScalingGroupInstanceInfo struct {
	Ec2InstanceID        string `json:"ec2-instance-id"`
	Hostname             string `json:"hostname"`
	AutoScalingGroupName string `json:"auto-scaling-group-name"`
}

// AwsLambdaInstanceInfo is one published lambda function version.
type AwsLambdaInstanceInfo struct {
	FunctionName string `json:"function-name"`
	Version      string `json:"version"`
	FunctionArn  string `json:"function-arn"`
}

// CodeDeployInstanceInfo is an EC2 host managed by a CodeDeploy group.
type CodeDeployInstanceInfo struct {
	Ec2InstanceID string `json:"ec2-instance-id"`
	Hostname      string `json:"hostname"`
	DeploymentID  string `json:"deployment-id"`
}

// SpotinstAmiInstanceInfo is an EC2 host launched by an elastigroup.
type SpotinstAmiInstanceInfo struct {
	Ec2InstanceID string `json:"ec2-instance-id"`
	Hostname      string `json:"hostname"`
	ElastigroupID string `json:"elastigroup-id"`
}

// AzureVMSSInstanceInfo is a member of a virtual machine scale set.
type AzureVMSSInstanceInfo struct {
	VMSSID   string `json:"vmss-id"`
	VMID     string `json:"vm-id"`
	Hostname string `json:"hostname"`
}

// PcfInstanceInfo is one instance index of a PCF application.
type PcfInstanceInfo struct {
	ID                 string `json:"id"`
	Organization       string `json:"organization"`
	Space              string `json:"space"`
	PcfApplicationName string `json:"pcf-application-name"`
	PcfApplicationGUID string `json:"pcf-application-guid"`
	InstanceIndex      string `json:"instance-index"`
}

// CustomDeploymentInstanceInfo is a host reported by a custom fetch script.
type CustomDeploymentInstanceInfo struct {
	Hostname   string            `json:"hostname"`
	Properties map[string]string `json:"properties,omitempty"`
}

// K8sPodInfo is a container instance.
type K8sPodInfo struct {
	PodName     string `json:"pod-name"`
	Namespace   string `json:"namespace"`
	ReleaseName string `json:"release-name"`
}

// Kind implements InstanceInfo.
func (*Ec2InstanceInfo) Kind() InstanceInfoKind { return InstanceInfoEc2 }

// Kind implements InstanceInfo.
func (*AutoScalingGroupInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoAutoScalingGroup }

// Kind implements InstanceInfo.
func (*AwsLambdaInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoAwsLambda }

// Kind implements InstanceInfo.
func (*CodeDeployInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoCodeDeploy }

// Kind implements InstanceInfo.
func (*SpotinstAmiInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoSpotinstAmi }

// Kind implements InstanceInfo.
func (*AzureVMSSInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoAzureVMSS }

// Kind implements InstanceInfo.
func (*PcfInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoPcf }

// Kind implements InstanceInfo.
func (*CustomDeploymentInstanceInfo) Kind() InstanceInfoKind { return InstanceInfoCustomDeployment }

// Kind implements InstanceInfo.
func (*K8sPodInfo) Kind() InstanceInfoKind { return InstanceInfoK8sPod }

func (*Ec2InstanceInfo) isInstanceInfo()              {}
func (*AutoScalingGroupInstanceInfo) isInstanceInfo() {}
func (*AwsLambdaInstanceInfo) isInstanceInfo()        {}
func (*CodeDeployInstanceInfo) isInstanceInfo()       {}
func (*SpotinstAmiInstanceInfo) isInstanceInfo()      {}
func (*AzureVMSSInstanceInfo) isInstanceInfo()        {}
func (*PcfInstanceInfo) isInstanceInfo()              {}
func (*CustomDeploymentInstanceInfo) isInstanceInfo() {}
func (*K8sPodInfo) isInstanceInfo()                   {}

var instanceInfoFactories = map[InstanceInfoKind]func() InstanceInfo{
	InstanceInfoEc2:              func() InstanceInfo { return &Ec2InstanceInfo{} },
	InstanceInfoAutoScalingGroup: func() InstanceInfo { return &AutoScalingGroupInstanceInfo{} },
	InstanceInfoAwsLambda:        func() InstanceInfo { return &AwsLambdaInstanceInfo{} },
	InstanceInfoCodeDeploy:       func() InstanceInfo { return &CodeDeployInstanceInfo{} },
	InstanceInfoSpotinstAmi:      func() InstanceInfo { return &SpotinstAmiInstanceInfo{} },
	InstanceInfoAzureVMSS:        func() InstanceInfo { return &AzureVMSSInstanceInfo{} },
	InstanceInfoPcf:              func() InstanceInfo { return &PcfInstanceInfo{} },
	InstanceInfoCustomDeployment: func() InstanceInfo { return &CustomDeploymentInstanceInfo{} },
	InstanceInfoK8sPod:           func() InstanceInfo { return &K8sPodInfo{} },
}

// Instance is a currently known live resource.
type Instance struct {
	UUID           string       `json:"uuid"`
	InstanceType   InstanceType `json:"instance-type"`
	InstanceInfo   InstanceInfo `json:"-"`
	AccountID      string       `json:"account-id"`
	AppID          string       `json:"app-id"`
	EnvID          string       `json:"env-id"`
	InfraMappingID string       `json:"infra-mapping-id"`
	LastDeployedAt time.Time    `json:"last-deployed-at"`
}

// ID implements dataset.DataEntry
func (i *Instance) ID() string {
	return i.UUID
}

type instanceAlias Instance

type instanceJSON struct {
	*instanceAlias
	InfoKind InstanceInfoKind `json:"info-kind,omitempty"`
	Info     json.RawMessage  `json:"info,omitempty"`
}

// MarshalJSON encodes the InstanceInfo together with its kind tag.
func (i *Instance) MarshalJSON() ([]byte, error) {
	out := instanceJSON{instanceAlias: (*instanceAlias)(i)}
	if i.InstanceInfo != nil {
		raw, err := json.Marshal(i.InstanceInfo)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out.InfoKind = i.InstanceInfo.Kind()
		out.Info = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the InstanceInfo variant named by the kind tag.
func (i *Instance) UnmarshalJSON(data []byte) error {
	in := instanceJSON{instanceAlias: (*instanceAlias)(i)}
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Trace(err)
	}
	if in.InfoKind == "" {
		i.InstanceInfo = nil
		return nil
	}
	factory, ok := instanceInfoFactories[in.InfoKind]
	if !ok {
		return cerrors.ErrUnknownInfoKind.GenWithStackByArgs(in.InfoKind)
	}
	info := factory()
	if err := json.Unmarshal(in.Info, info); err != nil {
		return errors.Trace(err)
	}
	i.InstanceInfo = info
	return nil
}
