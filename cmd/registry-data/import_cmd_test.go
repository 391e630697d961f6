package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestImportResidents_DryRunPrintsReport(t *testing.T) {
	path := writeTemp(t, "residents.csv", []byte(
		"code,lastname,streetname,phone\n"+
			"7,Cohen,Herzl,0501234567\n"+
			",Levi,,0507654321\n"+
			",Levi Updated,,0507654321\n",
	))

	out, err := runCLI(t, "import-residents", "--file", path, "--dry-run")
	require.NoError(t, err)

	var result struct {
		Kind   string `json:"kind"`
		File   string `json:"file"`
		DryRun bool   `json:"dry_run"`
		Report struct {
			Inserted       int `json:"inserted"`
			Updated        int `json:"updated"`
			Failed         int `json:"failed"`
			MissingStreets int `json:"missing_streets"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	require.Equal(t, "residents", result.Kind)
	require.Equal(t, "residents.csv", result.File)
	require.True(t, result.DryRun)
	require.Equal(t, 2, result.Report.Inserted)
	require.Equal(t, 1, result.Report.Updated)
	require.Zero(t, result.Report.Failed)
	require.Equal(t, 2, result.Report.MissingStreets)
}

func TestImportOrders_DryRun(t *testing.T) {
	path := writeTemp(t, "orders.csv", []byte("sender_code,invitees\n12,\"3,4\"\n,\n"))

	out, err := runCLI(t, "import-orders", "--file", path, "--dry-run")
	require.NoError(t, err)

	var result struct {
		Report struct {
			Appended int `json:"appended"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	require.Equal(t, 1, result.Report.Appended)
}

func TestImport_ExitCodes(t *testing.T) {
	_, err := runCLI(t, "import-residents", "--file", filepath.Join(t.TempDir(), "missing.csv"), "--dry-run")
	require.Equal(t, exitUsage, exitCode(err))

	broken := writeTemp(t, "broken.csv", []byte{0x81, 0x81, 0x81})
	_, err = runCLI(t, "import-residents", "--file", broken, "--dry-run")
	require.Equal(t, exitValidation, exitCode(err))

	empty := writeTemp(t, "empty.csv", nil)
	_, err = runCLI(t, "import-orders", "--file", empty, "--dry-run")
	require.Equal(t, exitValidation, exitCode(err))

	_, err = runCLI(t, "import-residents")
	require.Error(t, err)
}

func TestReset_RequiresConfirmation(t *testing.T) {
	_, err := runCLI(t, "reset")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode_Unwraps(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, exitDB, exitCode(withCode(exitDB, os.ErrNotExist)))
	require.Equal(t, 1, exitCode(os.ErrNotExist))
	require.Nil(t, withCode(exitDB, nil))
}
