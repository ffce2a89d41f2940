package model

// InfraMappingType is the closed set of deployment target kinds.
type InfraMappingType string

// infrastructure mapping types
const (
	InfraMappingAwsSSH           InfraMappingType = "AWS_SSH"
	InfraMappingAwsAmi           InfraMappingType = "AWS_AMI"
	InfraMappingAwsLambda        InfraMappingType = "AWS_AWS_LAMBDA"
	InfraMappingAwsCodeDeploy    InfraMappingType = "AWS_AWS_CODEDEPLOY"
	InfraMappingSpotinstAmi      InfraMappingType = "SPOTINST_AMI"
	InfraMappingAzureVMSS        InfraMappingType = "AZURE_VMSS"
	InfraMappingPcf              InfraMappingType = "PCF_PCF"
	InfraMappingCustom           InfraMappingType = "CUSTOM"
	InfraMappingDirectKubernetes InfraMappingType = "DIRECT_KUBERNETES"
	InfraMappingAwsEcs           InfraMappingType = "AWS_ECS"
)

var allInfraMappingTypes = map[InfraMappingType]struct{}{
	InfraMappingAwsSSH:           {},
	InfraMappingAwsAmi:           {},
	InfraMappingAwsLambda:        {},
	InfraMappingAwsCodeDeploy:    {},
	InfraMappingSpotinstAmi:      {},
	InfraMappingAzureVMSS:        {},
	InfraMappingPcf:              {},
	InfraMappingCustom:           {},
	InfraMappingDirectKubernetes: {},
	InfraMappingAwsEcs:           {},
}

// Valid reports whether t belongs to the closed set.
func (t InfraMappingType) Valid() bool {
	_, ok := allInfraMappingTypes[t]
	return ok
}

// InfrastructureMapping is a deployment target. Its identity never changes
// once created.
type InfrastructureMapping struct {
	UUID             string           `json:"uuid"`
	AccountID        string           `json:"account-id"`
	AppID            string           `json:"app-id"`
	EnvID            string           `json:"env-id"`
	ServiceID        string           `json:"service-id"`
	InfraMappingType InfraMappingType `json:"infra-mapping-type"`
	Name             string           `json:"name"`
}

// ID implements dataset.DataEntry
func (m *InfrastructureMapping) ID() string {
	return m.UUID
}
