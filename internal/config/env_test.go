package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapEnv_SkippedInCI(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env", []byte("PRESENCEC_TEST_MARKER=from_dotenv\n"), 0o644))

	t.Setenv("CI", "true")
	t.Setenv("PRESENCEC_TEST_MARKER", "")
	BootstrapEnv()
	assert.Empty(t, os.Getenv("PRESENCEC_TEST_MARKER"), "CI runs must not read .env")
}

func TestBootstrapEnv_LoadsOutsideCI(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env", []byte("PRESENCEC_TEST_MARKER=from_dotenv\n"), 0o644))

	t.Setenv("CI", "")
	os.Unsetenv("PRESENCEC_TEST_MARKER")
	BootstrapEnv()
	assert.Equal(t, "from_dotenv", os.Getenv("PRESENCEC_TEST_MARKER"))
	os.Unsetenv("PRESENCEC_TEST_MARKER")
}
