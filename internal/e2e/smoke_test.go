package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runCW(t, binaryPath, home,
		"inventory", "init",
		"--topic", "cabin-alerts",
		"--client-id", "client-123",
		"--client-secret", "secret-456",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runCW(t, binaryPath, home,
		"inventory", "add",
		"--house", "Cabin",
		"--room", "Bedroom",
		"--device-id", "2930001234",
		"--device-kind", "WAVE_PLUS",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runCW(t, binaryPath, home, "inventory", "show")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Cabin")
	assert.Contains(t, stdout, "Bedroom:")
	assert.Contains(t, stdout, "2930001234")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "cw-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/cw")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build cw binary: %s", string(output))
	return binaryPath
}

func runCW(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
