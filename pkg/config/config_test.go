package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	realmA  = "DPiH3H3c7t47BMxqTxLsuPQpEC6Kne8GA9VXbxpnZxFE"
	realmB  = "By2sVGZXwfQq8rAqpLE8dq2EjmiQ8nzMdmBN8t6pWpdm"
	program = "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"
)

func TestLoadParsesAllowlist(t *testing.T) {
	t.Setenv("REALM_ALLOWLIST", realmA+" , "+realmB+", not-a-pubkey,")

	cfg := Load()

	assert.Equal(t, []string{realmA, realmB}, cfg.AllowedRealms())
	assert.True(t, cfg.IsAllowedRealm(realmA))
	assert.False(t, cfg.IsAllowedRealm("not-a-pubkey"))
}

func TestProgramIDResolution(t *testing.T) {
	t.Setenv("REALM_ALLOWLIST", realmA+","+realmB)
	t.Setenv("REALM_PROGRAM_IDS", realmB+"="+realmA+", broken-entry")

	cfg := Load()

	// Default program for realms without an override.
	got, ok := cfg.ProgramIDFor(realmA)
	require.True(t, ok)
	assert.Equal(t, DefaultGovernanceProgramID, got)

	// Explicit override.
	got, ok = cfg.ProgramIDFor(realmB)
	require.True(t, ok)
	assert.Equal(t, realmA, got)

	// Realms off the allowlist never resolve.
	_, ok = cfg.ProgramIDFor(program)
	assert.False(t, ok)
}

func TestFilterRealms(t *testing.T) {
	t.Setenv("REALM_ALLOWLIST", realmA+","+realmB)
	cfg := Load()

	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{"empty falls back to allowlist", "", []string{realmA, realmB}},
		{"explicit single", realmB, []string{realmB}},
		{"mixed keeps allowed only", realmB + ",unknown-realm," + realmA, []string{realmB, realmA}},
		{"duplicates collapse", realmA + "," + realmA, []string{realmA}},
		{"all rejected", "unknown-realm,another", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.FilterRealms(tt.csv))
		})
	}
}

func TestAppBaseURLTrimsTrailingSlash(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://realms.example/")

	cfg := Load()

	assert.Equal(t, "https://realms.example", cfg.AppBaseURL)
}

func TestIsValidPubkey(t *testing.T) {
	assert.True(t, IsValidPubkey(realmA))
	assert.True(t, IsValidPubkey(program))
	assert.False(t, IsValidPubkey(""))
	assert.False(t, IsValidPubkey("0OIl000000000000000000000000000000"))
	assert.False(t, IsValidPubkey("tooshort"))
	assert.False(t, IsValidPubkey(realmA+realmB))
}

func TestInvalidDefaultProgramIDFallsBack(t *testing.T) {
	t.Setenv("DEFAULT_PROGRAM_ID", "garbage")

	cfg := Load()

	assert.Equal(t, DefaultGovernanceProgramID, cfg.DefaultProgramID)
}
