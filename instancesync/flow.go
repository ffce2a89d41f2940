package instancesync

// InstanceSyncFlow is the origin a caller declares when it asks to write
// instance state.
type InstanceSyncFlow string

// instance sync flows
const (
	FlowNewDeployment        InstanceSyncFlow = "NEW_DEPLOYMENT"
	FlowPerpetualTask        InstanceSyncFlow = "PERPETUAL_TASK"
	FlowIteratorInstanceSync InstanceSyncFlow = "ITERATOR_INSTANCE_SYNC"
)

// Valid reports whether f is one of the known flows.
func (f InstanceSyncFlow) Valid() bool {
	switch f {
	case FlowNewDeployment, FlowPerpetualTask, FlowIteratorInstanceSync:
		return true
	}
	return false
}
