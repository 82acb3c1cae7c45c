package errs

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesCoreAndErrno(t *testing.T) {
	err := NewCoreError("LaunchRemote", 3, CodeReactorConfigure, syscall.EINVAL)
	require.Contains(t, err.Error(), "reactor configure failed")
	require.Contains(t, err.Error(), "op=LaunchRemote")
	require.Contains(t, err.Error(), "core=3")
	require.Contains(t, err.Error(), "errno=22")
	require.Equal(t, syscall.EINVAL, err.Errno)
}

func TestErrorOmitsCoreWhenNotApplicable(t *testing.T) {
	err := NewError("ScheduleThread", CodeSpawnDispatch, "no eligible reactor")
	require.NotContains(t, err.Error(), "core=")
}

func TestIsCodeMatchesByCategory(t *testing.T) {
	err := NewError("op", CodeChildIO, "boom")
	require.True(t, IsCode(err, CodeChildIO))
	require.False(t, IsCode(err, CodeReactorConfigure))
}

func TestErrorsIsComparesByCode(t *testing.T) {
	a := NewError("op1", CodeReactorConfigure, "a")
	b := NewError("op2", CodeReactorConfigure, "b")
	require.True(t, errors.Is(a, b))

	c := NewError("op3", CodeChildIO, "c")
	require.False(t, errors.Is(a, c))
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: "op", Code: CodeChildIO, Inner: inner}
	require.Equal(t, inner, errors.Unwrap(err))
}
