package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmkit/gov-notify/internal/models"
)

const (
	testRealm   = "DPiH3H3c7t47BMxqTxLsuPQpEC6Kne8GA9VXbxpnZxFE"
	testProgram = "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"
)

type indexerRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// fakeIndexer serves the two query shapes and records traffic.
type fakeIndexer struct {
	t *testing.T

	governanceV1 []string
	governanceV2 []string
	proposalsV1  []map[string]interface{}
	proposalsV2  []map[string]interface{}

	governanceCalls int
	proposalCalls   []indexerRequest
}

func (f *fakeIndexer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, http.MethodPost, r.Method)

		var req indexerRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "query Governances") {
			f.governanceCalls++
			writeData(f.t, w, map[string]interface{}{
				"v1": pubkeyRows(f.governanceV1),
				"v2": pubkeyRows(f.governanceV2),
			})
			return
		}

		f.proposalCalls = append(f.proposalCalls, req)
		writeData(f.t, w, map[string]interface{}{
			"v1": f.proposalsV1,
			"v2": f.proposalsV2,
		})
	}
}

func writeData(t *testing.T, w http.ResponseWriter, data interface{}) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"data": data}))
}

func pubkeyRows(pubkeys []string) []map[string]string {
	rows := make([]map[string]string, 0, len(pubkeys))
	for _, pk := range pubkeys {
		rows = append(rows, map[string]string{"pubkey": pk})
	}
	return rows
}

func govKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("gov-%04d", i)
	}
	return keys
}

func TestFetchGovernancePubkeysDeduplicates(t *testing.T) {
	fake := &fakeIndexer{
		t:            t,
		governanceV1: []string{"govA", "govB"},
		governanceV2: []string{"govB", "govC"},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	pubkeys, err := NewClient(srv.URL).FetchGovernancePubkeys(context.Background(), testRealm, testProgram)

	require.NoError(t, err)
	assert.Equal(t, []string{"govA", "govB", "govC"}, pubkeys)
}

func TestFetchGovernancePubkeysRejectsBadInputs(t *testing.T) {
	client := NewClient("http://unused.invalid")

	_, err := client.FetchGovernancePubkeys(context.Background(), "not-base58!", testProgram)
	require.Error(t, err)

	_, err = client.FetchGovernancePubkeys(context.Background(), testRealm, "short")
	require.Error(t, err)
}

func TestFetchProposalsChunksGovernances(t *testing.T) {
	fake := &fakeIndexer{t: t, governanceV1: govKeys(301)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchProposals(context.Background(), testRealm, testProgram)

	require.NoError(t, err)
	// ceil(301/150) chunked proposal queries after one governance query.
	assert.Equal(t, 1, fake.governanceCalls)
	require.Len(t, fake.proposalCalls, 3)

	sizes := make([]int, 0, 3)
	total := 0
	for _, call := range fake.proposalCalls {
		govs := call.Variables["governances"].([]interface{})
		sizes = append(sizes, len(govs))
		total += len(govs)
		assert.LessOrEqual(t, len(govs), GovernanceChunkSize)
		assert.Equal(t, float64(2000), call.Variables["limit"])
	}
	assert.Equal(t, []int{150, 150, 1}, sizes)
	assert.Equal(t, 301, total)
}

func TestFetchProposalsEmptyWithoutGovernances(t *testing.T) {
	fake := &fakeIndexer{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	proposals, err := NewClient(srv.URL).FetchProposals(context.Background(), testRealm, testProgram)

	require.NoError(t, err)
	assert.Empty(t, proposals)
	assert.Empty(t, fake.proposalCalls)
}

func TestFetchProposalsMergesAndSorts(t *testing.T) {
	fake := &fakeIndexer{
		t:            t,
		governanceV1: []string{"govA"},
		proposalsV1: []map[string]interface{}{
			{"pubkey": "P1", "governance": "govA", "name": "old name", "state": "DRAFT", "draftAt": 1000, "votingAt": 0},
			{"pubkey": "P2", "governance": "govA", "name": "second", "state": "DRAFT", "draftAt": 3000, "votingAt": 0},
		},
		proposalsV2: []map[string]interface{}{
			// v2 wins the P1 collision.
			{"pubkey": "P1", "governance": "govA", "name": "new name", "state": 2, "draftAt": "1000", "votingAt": "0x7d0"},
			{"pubkey": "P3", "governance": "govA", "name": "third", "state": "VOTING", "draftAt": 2000, "votingAt": 2100},
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	proposals, err := NewClient(srv.URL).FetchProposals(context.Background(), testRealm, testProgram)

	require.NoError(t, err)
	require.Len(t, proposals, 3)

	// draftAt descending.
	assert.Equal(t, []string{"P2", "P3", "P1"}, []string{proposals[0].Pubkey, proposals[1].Pubkey, proposals[2].Pubkey})

	p1 := proposals[2]
	assert.Equal(t, "new name", p1.Name)
	assert.Equal(t, "2", p1.State)
	assert.True(t, models.IsVotingState(p1.State))
	assert.Equal(t, int64(1000), p1.DraftAt)
	assert.Equal(t, int64(2000), p1.VotingAt)
}

func TestFetchProposalsCoercesBadNumbers(t *testing.T) {
	fake := &fakeIndexer{
		t:            t,
		governanceV1: []string{"govA"},
		proposalsV1: []map[string]interface{}{
			{"pubkey": "P1", "governance": "govA", "name": "odd", "state": nil, "draftAt": "garbage", "votingAt": nil},
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	proposals, err := NewClient(srv.URL).FetchProposals(context.Background(), testRealm, testProgram)

	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, int64(0), proposals[0].DraftAt)
	assert.Equal(t, int64(0), proposals[0].VotingAt)
	assert.Equal(t, "", proposals[0].State)
}

func TestQueryGraphQLErrorsAreHardFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": null, "errors": [{"message": "field does not exist"}]}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchGovernancePubkeys(context.Background(), testRealm, testProgram)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexer query failed")
	assert.Contains(t, err.Error(), "field does not exist")
}

func TestQueryNon2xxIsHardFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, strings.Repeat("upstream exploded ", 40))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchGovernancePubkeys(context.Background(), testRealm, testProgram)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	// Body is truncated inside the error.
	assert.Less(t, len(err.Error()), 450)
}
