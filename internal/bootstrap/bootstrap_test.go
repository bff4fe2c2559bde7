package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRunner is a mock implementation of Runner
type MockRunner struct {
	mock.Mock
}

// Run mocks the Run method
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	called := m.Called(ctx, name, args)
	return called.String(0), called.Error(1)
}

var (
	listAll     = []string{"ps", "-a", "--filter", "name=^/inventory$", "--format", "{{.Names}}"}
	listRunning = []string{"ps", "--filter", "name=^/inventory$", "--format", "{{.Names}}"}
)

func newTestLauncher() (*Launcher, *MockRunner) {
	runner := &MockRunner{}
	return &Launcher{Runner: runner, Name: "inventory", Port: 3000, ContextDir: "."}, runner
}

func TestEnsureContainerCreatesAndStarts(t *testing.T) {
	l, runner := newTestLauncher()
	runner.On("Run", mock.Anything, "docker", listAll).Return("", nil).Once()
	runner.On("Run", mock.Anything, "docker", []string{"build", "-t", "inventory", "."}).Return("", nil).Once()
	runner.On("Run", mock.Anything, "docker", []string{"create", "--name", "inventory", "-p", "3000:3000", "inventory"}).Return("abc123\n", nil).Once()
	runner.On("Run", mock.Anything, "docker", listRunning).Return("", nil).Once()
	runner.On("Run", mock.Anything, "docker", []string{"start", "inventory"}).Return("inventory\n", nil).Once()

	state, err := l.EnsureContainer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{Existed: false, Created: true, Started: true}, state)
	runner.AssertExpectations(t)
}

func TestEnsureContainerStartsStopped(t *testing.T) {
	l, runner := newTestLauncher()
	runner.On("Run", mock.Anything, "docker", listAll).Return("inventory\n", nil).Once()
	runner.On("Run", mock.Anything, "docker", listRunning).Return("", nil).Once()
	runner.On("Run", mock.Anything, "docker", []string{"start", "inventory"}).Return("inventory\n", nil).Once()

	state, err := l.EnsureContainer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{Existed: true, Started: true}, state)
	runner.AssertExpectations(t)
}

func TestEnsureContainerAlreadyRunning(t *testing.T) {
	l, runner := newTestLauncher()
	runner.On("Run", mock.Anything, "docker", listAll).Return("inventory\n", nil).Once()
	runner.On("Run", mock.Anything, "docker", listRunning).Return("inventory\n", nil).Once()

	state, err := l.EnsureContainer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{Existed: true}, state)
	runner.AssertExpectations(t)
	runner.AssertNotCalled(t, "Run", mock.Anything, "docker", []string{"start", "inventory"})
}

func TestExistsIgnoresSimilarNames(t *testing.T) {
	l, runner := newTestLauncher()
	runner.On("Run", mock.Anything, "docker", listAll).Return("inventory-old\nmy-inventory\n", nil)

	exists, err := l.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnsureContainerBuildFailure(t *testing.T) {
	l, runner := newTestLauncher()
	runner.On("Run", mock.Anything, "docker", listAll).Return("", nil).Once()
	runner.On("Run", mock.Anything, "docker", []string{"build", "-t", "inventory", "."}).
		Return("", errors.New("no Dockerfile")).Once()

	state, err := l.EnsureContainer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build image inventory")
	assert.False(t, state.Created)
	runner.AssertExpectations(t)
}

func TestListFailure(t *testing.T) {
	l, runner := newTestLauncher()
	runner.On("Run", mock.Anything, "docker", listAll).Return("", errors.New("docker: not found"))

	_, err := l.EnsureContainer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list containers")
}

func TestExecRunner(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "go", "env", "GOOS")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = ExecRunner{}.Run(context.Background(), "go", "no-such-command")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go no-such-command")
}
