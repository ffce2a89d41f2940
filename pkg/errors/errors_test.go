package errors

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func TestIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	testCases := []struct {
		err    error
		target *errors.Error
		expect bool
	}{
		{ErrTaskNotFound.GenWithStackByArgs("a", "t"), ErrTaskNotFound, true},
		{ErrTaskNotFound.FastGenByArgs("a", "t"), ErrTaskNotFound, true},
		{ErrTaskNotFound.GenWithStackByArgs("a", "t"), ErrTaskResetFailed, false},
		{Wrap(ErrMetaOpFail, cause, "get"), ErrMetaOpFail, true},
		{errors.Trace(Wrap(ErrMetaOpFail, cause, "get")), ErrMetaOpFail, true},
		{Wrap(ErrTaskResetFailed, ErrTaskNotFound.GenWithStackByArgs("a", "t"), "t"), ErrTaskNotFound, true},
		{cause, ErrMetaOpFail, false},
		{nil, ErrMetaOpFail, false},
	}
	for i, tc := range testCases {
		require.Equal(t, tc.expect, Is(tc.err, tc.target), "case %d", i)
	}
}

func TestWrapNil(t *testing.T) {
	t.Parallel()

	require.Nil(t, Wrap(ErrMetaOpFail, nil))
	err := Wrap(ErrTaskCreationFailed, errors.New("timeout"), "AWS_AMI_INSTANCE_SYNC", "asg-1")
	require.Regexp(t, ".*ErrTaskCreationFailed.*asg-1.*", err.Error())
}
