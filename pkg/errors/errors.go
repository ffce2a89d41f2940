package errors

import (
	"github.com/pingcap/errors"
)

// errors
var (
	// general errors
	ErrUnknown           = errors.Normalize("unknown error", errors.RFCCodeText("ISYNC:ErrUnknown"))
	ErrInvalidArgument   = errors.Normalize("invalid argument: %s", errors.RFCCodeText("ISYNC:ErrInvalidArgument"))
	ErrUnknownInfoKind   = errors.Normalize("unknown info kind: %s", errors.RFCCodeText("ISYNC:ErrUnknownInfoKind"))
	ErrInvalidInfraType  = errors.Normalize("invalid infrastructure mapping type: %s", errors.RFCCodeText("ISYNC:ErrInvalidInfraType"))
	ErrInfraMappingEmpty = errors.Normalize("infrastructure mapping is nil", errors.RFCCodeText("ISYNC:ErrInfraMappingEmpty"))

	// config related errors
	ErrConfigDecodeFile       = errors.Normalize("decode config file failed", errors.RFCCodeText("ISYNC:ErrConfigDecodeFile"))
	ErrConfigUnknownItem      = errors.Normalize("unknown config item: %s", errors.RFCCodeText("ISYNC:ErrConfigUnknownItem"))
	ErrConfigInvalidStoreType = errors.Normalize("invalid store type: %s", errors.RFCCodeText("ISYNC:ErrConfigInvalidStoreType"))
	ErrConfigInvalidValue     = errors.Normalize("invalid config value for %s: %v", errors.RFCCodeText("ISYNC:ErrConfigInvalidValue"))

	// meta related errors
	ErrMetaNewClientFail    = errors.Normalize("create meta client fail", errors.RFCCodeText("ISYNC:ErrMetaNewClientFail"))
	ErrMetaOpFail           = errors.Normalize("meta operation fail: %s", errors.RFCCodeText("ISYNC:ErrMetaOpFail"))
	ErrMetaEntryNotFound    = errors.Normalize("meta entry not found", errors.RFCCodeText("ISYNC:ErrMetaEntryNotFound"))
	ErrMetaOptionInvalid    = errors.Normalize("meta option invalid", errors.RFCCodeText("ISYNC:ErrMetaOptionInvalid"))
	ErrDatasetEntryNotFound = errors.Normalize("dataset entry not found. Key: %s", errors.RFCCodeText("ISYNC:ErrDatasetEntryNotFound"))

	// perpetual task registry errors
	ErrTaskNotFound       = errors.Normalize("perpetual task not found, account: %s, task: %s", errors.RFCCodeText("ISYNC:ErrTaskNotFound"))
	ErrTaskCreationFailed = errors.Normalize("create perpetual task failed, type: %s, identity: %s", errors.RFCCodeText("ISYNC:ErrTaskCreationFailed"))
	ErrTaskResetFailed    = errors.Normalize("reset perpetual task failed, task: %s", errors.RFCCodeText("ISYNC:ErrTaskResetFailed"))

	// instance sync errors
	ErrNoCreatorRegistered      = errors.Normalize("no perpetual task creator registered for %s", errors.RFCCodeText("ISYNC:ErrNoCreatorRegistered"))
	ErrCreatorAlreadyRegistered = errors.Normalize("perpetual task creator already registered for %s", errors.RFCCodeText("ISYNC:ErrCreatorAlreadyRegistered"))
	ErrInstanceListFailed       = errors.Normalize("list instances failed, app: %s, infra mapping: %s", errors.RFCCodeText("ISYNC:ErrInstanceListFailed"))
	ErrInfraMappingListFailed   = errors.Normalize("list infrastructure mappings failed, account: %s", errors.RFCCodeText("ISYNC:ErrInfraMappingListFailed"))

	// feature flag errors
	ErrFeatureFlagUnavailable = errors.Normalize("feature flag %s unavailable for account %s", errors.RFCCodeText("ISYNC:ErrFeatureFlagUnavailable"))
)

// Wrap wraps err with the given RFC error and attaches a stack. It returns nil
// when err is nil.
func Wrap(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByCause(args...)
}

// Is reports whether any error in err's chain is an instance of rfcError.
// Both stack wrappers and RFC errors wrapping a cause are walked.
func Is(err error, rfcError *errors.Error) bool {
	for err != nil {
		if e, ok := err.(*errors.Error); ok && e.ID() == rfcError.ID() {
			return true
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Cause() error }:
			err = x.Cause()
		default:
			return false
		}
	}
	return false
}
