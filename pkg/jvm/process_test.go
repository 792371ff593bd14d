package jvm_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_jvm "github.com/wetware/cljhost/internal/mock/pkg/jvm"
	"github.com/wetware/cljhost/pkg/jvm"
)

func TestProcess(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	opt := jvm.Options{Classpath: []string{"clojure.jar"}, Headless: true}

	vm := mock_jvm.NewMockVM(ctrl)
	vm.EXPECT().Close().Return(nil).Times(1)

	launcher := mock_jvm.NewMockLauncher(ctrl)
	launcher.EXPECT().Launch(opt).Return(vm, nil).Times(1)

	var p jvm.Process
	assert.Equal(t, jvm.Idle, p.State(), "zero-value process should be idle")
	assert.NoError(t, p.Idle(), "zero-value process should accept a start")

	_, err := p.VM()
	assert.ErrorIs(t, err, jvm.ErrNotStarted, "should not return VM before start")

	got, err := p.Start(launcher, opt)
	require.NoError(t, err, "first start should succeed")
	assert.Equal(t, vm, got)
	assert.Equal(t, jvm.Running, p.State())

	_, err = p.Start(launcher, opt)
	assert.ErrorIs(t, err, jvm.ErrAlreadyStarted, "second start should fail")
	assert.ErrorIs(t, p.Idle(), jvm.ErrAlreadyStarted, "running process should not be idle")

	got, err = p.VM()
	require.NoError(t, err)
	assert.Equal(t, vm, got)

	require.NoError(t, p.Kill(), "kill should close the VM")
	assert.Equal(t, jvm.Terminated, p.State())

	_, err = p.Start(launcher, opt)
	assert.ErrorIs(t, err, jvm.ErrAlreadyStarted, "should not restart a killed VM")
	assert.ErrorIs(t, p.Idle(), jvm.ErrAlreadyStarted, "terminated process should not be idle")

	assert.ErrorIs(t, p.Kill(), jvm.ErrNotStarted, "should not kill twice")
}

func TestProcess_launchFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("libjvm.so: cannot open shared object file")

	launcher := mock_jvm.NewMockLauncher(ctrl)
	launcher.EXPECT().Launch(gomock.Any()).Return(nil, boom).Times(1)

	var p jvm.Process
	_, err := p.Start(launcher, jvm.Options{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, jvm.Idle, p.State(), "failed launch should leave process idle")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	l := jvm.LauncherFunc(func(jvm.Options) (jvm.VM, error) {
		return nil, errors.New("test")
	})

	jvm.Register("registry-test", l)
	assert.Contains(t, jvm.Backends(), "registry-test")

	got, err := jvm.Lookup("registry-test")
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = jvm.Lookup("no-such-backend")
	assert.ErrorIs(t, err, jvm.ErrNoBackend)

	assert.Panics(t, func() { jvm.Register("registry-test", l) },
		"should panic on duplicate registration")
}
