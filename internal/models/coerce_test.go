package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleInt64(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int64
	}{
		{"nil", nil, 0},
		{"float", float64(1000), 1000},
		{"int", 42, 42},
		{"decimal string", "1234", 1234},
		{"hex string", "0x3e8", 1000},
		{"upper hex string", "0X2", 2},
		{"float string", "1000.0", 1000},
		{"padded string", "  77 ", 77},
		{"garbage", "not-a-number", 0},
		{"empty string", "", 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleInt64(tt.in))
		})
	}
}

func TestFlexibleString(t *testing.T) {
	assert.Equal(t, "VOTING", FlexibleString(" VOTING "))
	assert.Equal(t, "2", FlexibleString(float64(2)))
	assert.Equal(t, "", FlexibleString(nil))
}

func TestIsVotingState(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"VOTING", true},
		{"voting", true},
		{" Voting ", true},
		{"2", true},
		{"0x2", true},
		{"DRAFT", false},
		{"0", false},
		{"3", false},
		{"COMPLETED", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVotingState(tt.state))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 350))
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	got := Truncate(string(long), 350)
	assert.Len(t, got, 350)
	assert.Equal(t, "...", got[347:])
}

func TestShortPubkey(t *testing.T) {
	assert.Equal(t, "DPiH...ZxFE", ShortPubkey("DPiH3H3c7t47BMxqTxLsuPQpEC6Kne8GA9VXbxpnZxFE"))
	assert.Equal(t, "short", ShortPubkey("short"))
}

func TestProposalDisplayName(t *testing.T) {
	named := Proposal{Pubkey: "DPiH3H3c7t47BMxqTxLsuPQpEC6Kne8GA9VXbxpnZxFE", Name: "Treasury transfer"}
	assert.Equal(t, "Treasury transfer", named.DisplayName())

	unnamed := Proposal{Pubkey: "DPiH3H3c7t47BMxqTxLsuPQpEC6Kne8GA9VXbxpnZxFE"}
	assert.Equal(t, "DPiH...ZxFE", unnamed.DisplayName())
}

func TestSubscriptionID(t *testing.T) {
	a := SubscriptionID("realm1", "token1")
	b := SubscriptionID("realm1", "token2")
	c := SubscriptionID("realm2", "token1")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, SubscriptionID("realm1", "token1"))
}
