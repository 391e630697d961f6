package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "MISHLOACH_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "registry")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("MISHLOACH_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("MISHLOACH_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("MISHLOACH_TEST_ENV_LOAD"))
}

func TestIngestionOptions_Validate(t *testing.T) {
	opts := IngestionOptions{
		ResidentEncodings:  []string{" UTF-8", "cp1255"},
		OrderEncodings:     []string{"CP1255", "utf-8"},
		HeaderScanRows:     20,
		FallbackStreetCode: 999,
	}
	require.NoError(t, opts.Validate())
	require.Equal(t, []string{"utf-8", "cp1255"}, opts.ResidentEncodings)
	require.Equal(t, []string{"cp1255", "utf-8"}, opts.OrderEncodings)

	opts.OrderEncodings = []string{"koi8-r"}
	require.Error(t, opts.Validate())

	opts.OrderEncodings = nil
	require.Error(t, opts.Validate())
}

func TestRateLimitOptions_Validate(t *testing.T) {
	require.NoError(t, (&RateLimitOptions{Enabled: true, UploadRPM: 10}).Validate())
	require.NoError(t, (&RateLimitOptions{Enabled: false}).Validate())
	require.Error(t, (&RateLimitOptions{Enabled: true}).Validate())
	require.Error(t, (&RateLimitOptions{UploadRPM: -1}).Validate())
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
