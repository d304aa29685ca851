package arb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	tests := map[string]string{
		"security_rating":            "security",
		"SECURITY_RATING":            "security",
		" confidentiality_rating ":   "security",
		"integrity_rating":           "data",
		"availability_rating":        "operations",
		"resilience_rating":          "operations",
		"app_criticality_assessment": "enterprise_architecture",
		"something_new":              "enterprise_architecture",
	}
	for domain, want := range tests {
		assert.Equal(t, want, table.Resolve(domain), domain)
	}
	assert.ElementsMatch(t, []string{"enterprise_architecture", "security", "data", "operations"}, table.Boards())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default: triage\nroutes:\n  security_rating: appsec\n"), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "appsec", table.Resolve("security_rating"))
	assert.Equal(t, "triage", table.Resolve("integrity_rating"))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "nodefault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  a: b\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data", table.Resolve("integrity_rating"))
}
