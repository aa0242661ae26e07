package executor_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjy612/ManifestAutoUpdate-bak/executor"
)

func requireProgram(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestRun(t *testing.T) {
	requireProgram(t, "sh")
	sh := executor.New("sh")
	ctx := context.Background()

	tests := []struct {
		name     string
		args     []string
		opts     []executor.Option
		wantErr  bool
		validate func(*testing.T, *executor.Result)
	}{
		{
			name: "captures stdout",
			args: []string{"-c", "echo hello world"},
			validate: func(t *testing.T, r *executor.Result) {
				assert.Equal(t, "hello world\n", r.Stdout)
				assert.Zero(t, r.ExitCode)
			},
		},
		{
			name:    "exit code",
			args:    []string{"-c", "echo oops >&2; exit 3"},
			wantErr: true,
			validate: func(t *testing.T, r *executor.Result) {
				assert.Equal(t, 3, r.ExitCode)
				assert.Equal(t, "oops", r.Output())
			},
		},
		{
			name: "environment",
			args: []string{"-c", "printf %s \"$GREETING\""},
			opts: []executor.Option{executor.WithEnvVar("GREETING", "hi")},
			validate: func(t *testing.T, r *executor.Result) {
				assert.Equal(t, "hi", r.Stdout)
			},
		},
		{
			name: "working dir",
			args: []string{"-c", "pwd"},
			opts: []executor.Option{executor.WithWorkingDir("/")},
			validate: func(t *testing.T, r *executor.Result) {
				assert.Equal(t, "/\n", r.Stdout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := sh.Run(ctx, tt.args, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			tt.validate(t, r)
		})
	}
}

func TestDefaultsAndOverrides(t *testing.T) {
	requireProgram(t, "sh")
	sh := executor.New("sh", executor.WithWorkingDir("/"), executor.WithEnvVar("A", "1"))
	script := []string{"-c", `printf '%s %s %s' "$A" "$B" "$(pwd)"`}

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	r, err := sh.Run(context.Background(), script, executor.WithEnvVar("B", "2"), executor.WithWorkingDir(dir))
	require.NoError(t, err)
	assert.Equal(t, "1 2 "+dir, r.Stdout)

	r, err = sh.Run(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, "1  /", r.Stdout, "per-run options do not leak into the defaults")
}

func TestContextCancel(t *testing.T) {
	requireProgram(t, "sleep")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := executor.New("sleep").Run(ctx, []string{"5"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestMissingProgram(t *testing.T) {
	r, err := executor.New("definitely-not-a-real-program-xyz").Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, -1, r.ExitCode)
}
