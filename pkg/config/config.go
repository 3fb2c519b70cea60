package config

import (
	"log"
	"os"
	"regexp"
	"strings"
)

// DefaultGovernanceProgramID is the canonical SPL Governance program; realms
// without an explicit override are assumed to be governed by it.
const DefaultGovernanceProgramID = "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"

// pubkeyPattern gates every identifier that is ever interpolated into an
// indexer query (base58, 32-44 chars).
var pubkeyPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	IndexerURL              string
	AppBaseURL              string
	CronSecret              string
	PushTestSecret          string
	NotificationIconURL     string
	NotificationBadgeURL    string
	DefaultProgramID        string

	realms     []string
	programIDs map[string]string
}

func Load() *Config {
	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		IndexerURL:              getEnv("INDEXER_URL", ""),
		AppBaseURL:              strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		CronSecret:              getEnv("CRON_SECRET", ""),
		PushTestSecret:          getEnv("PUSH_TEST_SECRET", ""),
		NotificationIconURL:     getEnv("NOTIFICATION_ICON_URL", ""),
		NotificationBadgeURL:    getEnv("NOTIFICATION_BADGE_URL", ""),
		DefaultProgramID:        getEnv("DEFAULT_PROGRAM_ID", DefaultGovernanceProgramID),
		programIDs:              map[string]string{},
	}

	for _, realm := range splitCSV(os.Getenv("REALM_ALLOWLIST")) {
		if !IsValidPubkey(realm) {
			log.Printf("config: ignoring invalid realm pubkey %q in REALM_ALLOWLIST", realm)
			continue
		}
		cfg.realms = append(cfg.realms, realm)
	}

	for _, pair := range splitCSV(os.Getenv("REALM_PROGRAM_IDS")) {
		realm, program, ok := strings.Cut(pair, "=")
		realm, program = strings.TrimSpace(realm), strings.TrimSpace(program)
		if !ok || !IsValidPubkey(realm) || !IsValidPubkey(program) {
			log.Printf("config: ignoring invalid REALM_PROGRAM_IDS entry %q", pair)
			continue
		}
		cfg.programIDs[realm] = program
	}

	if !IsValidPubkey(cfg.DefaultProgramID) {
		log.Printf("config: invalid DEFAULT_PROGRAM_ID %q, falling back to SPL Governance", cfg.DefaultProgramID)
		cfg.DefaultProgramID = DefaultGovernanceProgramID
	}

	return cfg
}

// AllowedRealms returns the configured realm allowlist in declaration order.
func (c *Config) AllowedRealms() []string {
	out := make([]string, len(c.realms))
	copy(out, c.realms)
	return out
}

// IsAllowedRealm reports whether realm is on the allowlist.
func (c *Config) IsAllowedRealm(realm string) bool {
	for _, r := range c.realms {
		if r == realm {
			return true
		}
	}
	return false
}

// ProgramIDFor resolves the governance program id for an allowlisted realm.
func (c *Config) ProgramIDFor(realm string) (string, bool) {
	if !c.IsAllowedRealm(realm) {
		return "", false
	}
	if program, ok := c.programIDs[realm]; ok {
		return program, true
	}
	return c.DefaultProgramID, true
}

// FilterRealms resolves a comma-separated realm request against the
// allowlist. An empty request means "every allowed realm"; an explicit
// request keeps only allowlisted entries, deduplicated in request order.
func (c *Config) FilterRealms(csv string) []string {
	requested := splitCSV(csv)
	if len(requested) == 0 {
		return c.AllowedRealms()
	}
	seen := map[string]bool{}
	var out []string
	for _, realm := range requested {
		if seen[realm] || !c.IsAllowedRealm(realm) {
			continue
		}
		seen[realm] = true
		out = append(out, realm)
	}
	return out
}

// IsValidPubkey reports whether s looks like a base58 chain pubkey.
func IsValidPubkey(s string) bool {
	return pubkeyPattern.MatchString(s)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
