package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// votingStateDiscriminant is the numeric value of the "voting" lifecycle
// state in the on-chain account layout.
const votingStateDiscriminant = 2

// FlexibleInt64 coerces indexer and legacy snapshot values into an int64.
// Accepts raw JSON numbers, decimal strings and 0x-prefixed hex strings.
// Anything unparseable coerces to 0 rather than erroring.
func FlexibleInt64(v interface{}) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		return flexibleIntFromString(n.String())
	case string:
		return flexibleIntFromString(n)
	default:
		return 0
	}
}

func flexibleIntFromString(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0
		}
		return n
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Some indexer deployments emit timestamps as floats.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// FlexibleString normalizes a JSON value that may arrive as a string or a
// number (proposal state is encoded both ways historically).
func FlexibleString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatInt(int64(s), 10)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}

// IsVotingState reports whether a proposal state value denotes the voting
// phase, accepting both the string form ("VOTING", any case) and the numeric
// discriminant (decimal or hex 2).
func IsVotingState(state string) bool {
	s := strings.ToUpper(strings.TrimSpace(state))
	if s == "VOTING" {
		return true
	}
	return flexibleIntFromString(s) == votingStateDiscriminant
}

// Truncate clips s to at most n bytes, appending an ellipsis marker when
// something was cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
