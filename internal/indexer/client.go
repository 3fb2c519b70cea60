package indexer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/realmkit/gov-notify/internal/models"
	"github.com/realmkit/gov-notify/pkg/config"
)

const (
	// GovernanceChunkSize is the hard indexer limit on the number of
	// pubkeys a single _in filter may carry.
	GovernanceChunkSize = 150

	// proposalQueryLimit caps rows per schema version per chunk.
	proposalQueryLimit = 2000

	// maxErrorBodyLen bounds how much of an indexer response body is
	// carried inside an error.
	maxErrorBodyLen = 350
)

// The governance program persisted two incompatible account layouts over its
// lifetime; both schema versions must be queried and merged, with v2 rows
// winning on pubkey collisions.
const governanceQuery = `query Governances($realm: String!, $program: String!) {
  v1: governanceAccountsV1(where: {realm: {_eq: $realm}, program: {_eq: $program}}) {
    pubkey
  }
  v2: governanceAccountsV2(where: {realm: {_eq: $realm}, program: {_eq: $program}}) {
    pubkey
  }
}`

const proposalQuery = `query Proposals($governances: [String!]!, $limit: Int!) {
  v1: proposalsV1(where: {governance: {_in: $governances}}, limit: $limit, order_by: {draftAt: desc}) {
    pubkey governance name state draftAt votingAt
  }
  v2: proposalsV2(where: {governance: {_in: $governances}}, limit: $limit, order_by: {draftAt: desc}) {
    pubkey governance name state draftAt votingAt
  }
}`

// Client queries the external GraphQL indexer for governance accounts and
// proposals. All identifiers are passed as GraphQL variables and additionally
// gated by the pubkey pattern before a request is built.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type gqlError struct {
	Message string `json:"message"`
}

type governanceData struct {
	V1 []struct {
		Pubkey string `json:"pubkey"`
	} `json:"v1"`
	V2 []struct {
		Pubkey string `json:"pubkey"`
	} `json:"v2"`
}

type proposalRow struct {
	Pubkey     string      `json:"pubkey"`
	Governance string      `json:"governance"`
	Name       string      `json:"name"`
	State      interface{} `json:"state"`
	DraftAt    interface{} `json:"draftAt"`
	VotingAt   interface{} `json:"votingAt"`
}

type proposalData struct {
	V1 []proposalRow `json:"v1"`
	V2 []proposalRow `json:"v2"`
}

// FetchGovernancePubkeys returns the deduplicated governance sub-account
// pubkeys of a realm across both schema versions, sorted for determinism.
func (c *Client) FetchGovernancePubkeys(ctx context.Context, realm, programID string) ([]string, error) {
	if !config.IsValidPubkey(realm) {
		return nil, fmt.Errorf("invalid realm pubkey %q", realm)
	}
	if !config.IsValidPubkey(programID) {
		return nil, fmt.Errorf("invalid program id %q", programID)
	}

	var data governanceData
	err := c.query(ctx, governanceQuery, map[string]interface{}{
		"realm":   realm,
		"program": programID,
	}, &data)
	if err != nil {
		return nil, err
	}

	set := map[string]bool{}
	for _, g := range data.V1 {
		set[g.Pubkey] = true
	}
	for _, g := range data.V2 {
		set[g.Pubkey] = true
	}

	pubkeys := make([]string, 0, len(set))
	for pk := range set {
		pubkeys = append(pubkeys, pk)
	}
	sort.Strings(pubkeys)
	return pubkeys, nil
}

// FetchProposals returns every proposal under the realm's governance
// accounts, deduplicated by pubkey (v2 wins) and ordered by draftAt
// descending. A realm without governance accounts yields an empty list.
func (c *Client) FetchProposals(ctx context.Context, realm, programID string) ([]models.Proposal, error) {
	governances, err := c.FetchGovernancePubkeys(ctx, realm, programID)
	if err != nil {
		return nil, err
	}
	if len(governances) == 0 {
		return nil, nil
	}

	merged := map[string]models.Proposal{}
	for start := 0; start < len(governances); start += GovernanceChunkSize {
		end := start + GovernanceChunkSize
		if end > len(governances) {
			end = len(governances)
		}

		var data proposalData
		err := c.query(ctx, proposalQuery, map[string]interface{}{
			"governances": governances[start:end],
			"limit":       proposalQueryLimit,
		}, &data)
		if err != nil {
			return nil, err
		}

		// v1 first, v2 second so v2 overwrites on collision.
		for _, row := range data.V1 {
			merged[row.Pubkey] = rowToProposal(row)
		}
		for _, row := range data.V2 {
			merged[row.Pubkey] = rowToProposal(row)
		}
	}

	proposals := make([]models.Proposal, 0, len(merged))
	for _, p := range merged {
		proposals = append(proposals, p)
	}
	sort.SliceStable(proposals, func(i, j int) bool {
		if proposals[i].DraftAt != proposals[j].DraftAt {
			return proposals[i].DraftAt > proposals[j].DraftAt
		}
		return proposals[i].Pubkey < proposals[j].Pubkey
	})
	return proposals, nil
}

func rowToProposal(row proposalRow) models.Proposal {
	return models.Proposal{
		Pubkey:     row.Pubkey,
		Governance: row.Governance,
		Name:       row.Name,
		State:      models.FlexibleString(row.State),
		DraftAt:    models.FlexibleInt64(row.DraftAt),
		VotingAt:   models.FlexibleInt64(row.VotingAt),
	}
}

// query posts one GraphQL request and decodes data into out. A non-2xx
// status or a non-empty errors array is a hard failure; nothing is retried.
func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal indexer query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build indexer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("indexer request failed: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("decompress indexer response: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read indexer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("indexer returned status %d: %s", resp.StatusCode, models.Truncate(string(body), maxErrorBodyLen))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode indexer response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("indexer query failed: %s", models.Truncate(string(body), maxErrorBodyLen))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode indexer data: %w", err)
	}
	return nil
}
