package engine

import (
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubDriver struct{ name string }

func (d stubDriver) Name() string         { return d.name }
func (d stubDriver) NewEnv() (Env, error) { return nil, NewError("new_env", ErrIncompatible) }

func TestRegistry(t *testing.T) {
	Register(stubDriver{name: "stub-registry"})

	d, ok := Lookup("stub-registry")
	require.True(t, ok)
	require.Equal(t, "stub-registry", d.Name())
	require.Contains(t, Drivers(), "stub-registry")

	_, ok = Lookup("missing")
	require.False(t, ok)

	require.Panics(t, func() { Register(stubDriver{name: "stub-registry"}) })
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, Success, CodeOf(nil))
	require.Equal(t, ErrNotFound, CodeOf(NewError("get", ErrNotFound)))
	require.Equal(t, ErrKeyExist, CodeOf(fmt.Errorf("wrapped: %w", NewError("put", ErrKeyExist))))
	require.Equal(t, ErrProblem, CodeOf(fmt.Errorf("plain")))

	_, err := os.Open("/definitely/not/here")
	require.Error(t, err)
	require.True(t, CodeOf(err).IsErrno())

	require.True(t, IsNotFound(NewError("get", ErrNotFound)))
	require.True(t, IsKeyExist(NewError("put", ErrKeyExist)))
	require.False(t, IsKeyExist(nil))
}

func TestErrorString(t *testing.T) {
	err := NewError("cursor_get", ErrNotFound)
	require.Equal(t, "cursor_get: key/data pair not found", err.Error())

	wrapped := WrapError("open", syscall.ENOENT)
	require.Equal(t, Code(syscall.ENOENT), wrapped.Code)
	require.ErrorIs(t, wrapped, syscall.ENOENT)

	require.Equal(t, "unknown error code -1", Code(-1).String())
}

func TestTableFlags(t *testing.T) {
	require.Equal(t, DupSort, (DupSort | Create).Persistent())
	require.Equal(t, ReverseKey|IntegerDup, (ReverseKey | IntegerDup | 0x8000).Persistent())
	require.True(t, (DupSort | DupFixed).IsDup())
	require.False(t, IntegerKey.IsDup())
	require.True(t, (DupSort | IntegerDup).Valid())
	require.False(t, IntegerDup.Valid())
}

func TestOpString(t *testing.T) {
	require.Equal(t, "get_both_range", GetBothRange.String())
	require.Equal(t, "set_range", SetRange.String())
	require.Equal(t, "op(99)", Op(99).String())
}
