// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor resolves only the binaries it is told about.
type mockExecutor struct {
	availableBins map[string]bool
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return nil, nil
}

func TestDetect(t *testing.T) {
	e := &mockExecutor{availableBins: map[string]bool{"ffmpeg": true, "pdftoppm": true}}
	got := Detect(e,
		Requirement{Name: "ffmpeg", Required: true},
		Requirement{Name: "ffprobe", Required: true},
		Requirement{Name: "pdftoppm", Required: true},
		Requirement{Name: "whisper-cli"},
		Requirement{},
	)
	require.Len(t, got, 4)

	assert.True(t, got[0].Found())
	assert.Equal(t, "/usr/bin/ffmpeg", got[0].Path)
	assert.False(t, got[1].Found())
	assert.Contains(t, got[1].Err, "not found")
	assert.False(t, got[3].Found())
	assert.False(t, got[3].Required)

	err := Missing(got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffprobe")
	assert.NotContains(t, err.Error(), "whisper-cli")
}

func TestMissing_AllPresent(t *testing.T) {
	e := &mockExecutor{availableBins: map[string]bool{"ffmpeg": true}}
	assert.NoError(t, Missing(Detect(e, Requirement{Name: "ffmpeg", Required: true}, Requirement{Name: "extra"})))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestOSExecutor_Run(t *testing.T) {
	requireShell(t)
	e := NewExecutor(zerolog.Nop())

	out, err := e.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestOSExecutor_RunFailureCarriesStderr(t *testing.T) {
	requireShell(t)
	e := NewExecutor(zerolog.Nop())

	_, err := e.Run(context.Background(), "sh", "-c", "echo 'Invalid data found' >&2; exit 3")
	require.Error(t, err)

	var re *RunError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "sh", re.Name)
	assert.Equal(t, "Invalid data found", re.Stderr)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestOSExecutor_RunCancelled(t *testing.T) {
	requireShell(t)
	e := NewExecutor(zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Run(ctx, "sh", "-c", "exec sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOSExecutor_MissingBinary(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	_, err := e.Run(context.Background(), "docpipe-no-such-binary-xyz")
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("  short \n", 10))
	long := strings.Repeat("a", 20) + "END"
	assert.Equal(t, "..."+strings.Repeat("a", 7)+"END", tail(long, 10))
}
