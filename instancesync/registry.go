package instancesync

import (
	"sort"
	"sync"

	"github.com/hanfei1991/instancesync/model"
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// CreatorRegistry maps infrastructure mapping types to their creator.
type CreatorRegistry struct {
	mu       sync.RWMutex
	creators map[model.InfraMappingType]PerpetualTaskCreator
}

// NewCreatorRegistry creates an empty registry.
func NewCreatorRegistry() *CreatorRegistry {
	return &CreatorRegistry{
		creators: make(map[model.InfraMappingType]PerpetualTaskCreator),
	}
}

// NewDefaultCreatorRegistry registers the creators of every supported
// provider.
func NewDefaultCreatorRegistry(deps CreatorDeps) *CreatorRegistry {
	r := NewCreatorRegistry()
	r.MustRegister(model.InfraMappingAwsAmi, NewAwsAmiCreator(deps))
	r.MustRegister(model.InfraMappingAwsLambda, NewAwsLambdaCreator(deps))
	r.MustRegister(model.InfraMappingAwsCodeDeploy, NewAwsCodeDeployCreator(deps))
	r.MustRegister(model.InfraMappingAwsSSH, NewAwsSSHCreator(deps))
	r.MustRegister(model.InfraMappingSpotinstAmi, NewSpotinstAmiCreator(deps))
	r.MustRegister(model.InfraMappingAzureVMSS, NewAzureVMSSCreator(deps))
	r.MustRegister(model.InfraMappingCustom, NewCustomDeploymentCreator(deps))
	r.MustRegister(model.InfraMappingPcf, NewPcfCreator(deps))
	return r
}

// MustRegister registers creator for tp. It panics if tp already has one.
func (r *CreatorRegistry) MustRegister(tp model.InfraMappingType, creator PerpetualTaskCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.creators[tp]; exists {
		panic(cerrors.ErrCreatorAlreadyRegistered.GenWithStackByArgs(tp))
	}
	r.creators[tp] = creator
}

// Creator returns the creator registered for tp.
func (r *CreatorRegistry) Creator(tp model.InfraMappingType) (PerpetualTaskCreator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	creator, ok := r.creators[tp]
	return creator, ok
}

// GetCreator is like Creator but reports a missing creator as
// ErrNoCreatorRegistered.
func (r *CreatorRegistry) GetCreator(tp model.InfraMappingType) (PerpetualTaskCreator, error) {
	creator, ok := r.Creator(tp)
	if !ok {
		return nil, cerrors.ErrNoCreatorRegistered.GenWithStackByArgs(tp)
	}
	return creator, nil
}

// Types returns the registered types in lexical order.
func (r *CreatorRegistry) Types() []model.InfraMappingType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]model.InfraMappingType, 0, len(r.creators))
	for tp := range r.creators {
		ret = append(ret, tp)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
