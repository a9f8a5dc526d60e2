package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capital-engine/api"
	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
	"github.com/warp/capital-engine/engine/store"
)

// newTestServer wires the handler to in-memory fixtures keyed by snapshot
// name, the way the server wires it to SQLite files.
func newTestServer(t *testing.T, snapshots map[string]*store.Memory) *httptest.Server {
	t.Helper()
	open := func(name string) (engine.Source, func(), error) {
		src, ok := snapshots[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown snapshot %q", name)
		}
		return src, func() {}, nil
	}
	waterfall := crm.NewWaterfall(engine.DefaultConfig(), crm.DefaultHaircutSchedule())
	server := httptest.NewServer(api.NewRouter(api.NewHandler(waterfall, open)))
	t.Cleanup(server.Close)
	return server
}

func fixtureSnapshot() *store.Memory {
	src := store.NewMemory()
	src.CounterpartyRows = []engine.Node{{ID: "cp1", Kind: engine.KindCounterparty}}
	src.ExposureRows = []engine.Exposure{
		{ID: "e1", CounterpartyID: "cp1",
			Approach: engine.ApproachStandardised, RiskType: engine.RiskTypeDirectCredit,
			Drawn: engine.NewMoney(100), Nominal: engine.NewMoney(40)},
	}
	return src
}

func submitRun(t *testing.T, server *httptest.Server, snapshot string) (*http.Response, api.RunSummaryDTO) {
	t.Helper()
	body, _ := json.Marshal(api.SubmitRunRequest{Snapshot: snapshot})
	resp, err := http.Post(server.URL+"/api/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var summary api.RunSummaryDTO
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	}
	return resp, summary
}

func TestSubmitRun_ReturnsSummary(t *testing.T) {
	server := newTestServer(t, map[string]*store.Memory{"2026-06-30": fixtureSnapshot()})

	resp, summary := submitRun(t, server, "2026-06-30")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "2026-06-30", summary.Snapshot)
	assert.Equal(t, 1, summary.ExposureCount)
	assert.Equal(t, "140", summary.TotalEADFinal)
}

func TestSubmitRun_UnknownSnapshot_BadRequest(t *testing.T) {
	server := newTestServer(t, nil)

	resp, _ := submitRun(t, server, "missing")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitRun_MissingSnapshotField_BadRequest(t *testing.T) {
	server := newTestServer(t, nil)

	resp, _ := submitRun(t, server, "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun_RoundTrip(t *testing.T) {
	server := newTestServer(t, map[string]*store.Memory{"snap": fixtureSnapshot()})
	_, submitted := submitRun(t, server, "snap")

	resp, err := http.Get(server.URL + "/api/runs/" + submitted.RunID)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched api.RunSummaryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(t, submitted.RunID, fetched.RunID)
}

func TestGetRun_Unknown_NotFound(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/runs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRunExposures_DecimalStrings(t *testing.T) {
	server := newTestServer(t, map[string]*store.Memory{"snap": fixtureSnapshot()})
	_, submitted := submitRun(t, server, "snap")

	resp, err := http.Get(server.URL + "/api/runs/" + submitted.RunID + "/exposures")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var exposures []api.ExposureDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exposures))
	require.Len(t, exposures, 1)
	assert.Equal(t, "e1", exposures[0].ID)
	assert.Equal(t, "100", exposures[0].Drawn)
	assert.Equal(t, "140", exposures[0].EADFinal)
	assert.Equal(t, "1", exposures[0].CCFOriginal)
}

func TestGetRunErrors_ExposesAccumulatedDefects(t *testing.T) {
	src := fixtureSnapshot()
	src.ProvisionRows = []engine.Provision{
		{ID: "prov1", BeneficiaryID: "ghost", Level: engine.LevelDirect, Amount: engine.NewMoney(10)},
	}
	server := newTestServer(t, map[string]*store.Memory{"snap": src})
	submitResp, submitted := submitRun(t, server, "snap")
	require.Equal(t, http.StatusCreated, submitResp.StatusCode)

	resp, err := http.Get(server.URL + "/api/runs/" + submitted.RunID + "/errors")
	require.NoError(t, err)
	defer resp.Body.Close()

	var errs []api.CalcErrorDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "allocation", errs[0].Category)
	assert.Equal(t, "prov1", errs[0].MitigantID)
}

func TestListRuns_ReturnsAllSubmitted(t *testing.T) {
	server := newTestServer(t, map[string]*store.Memory{
		"a": fixtureSnapshot(),
		"b": fixtureSnapshot(),
	})
	submitRun(t, server, "a")
	submitRun(t, server, "b")

	resp, err := http.Get(server.URL + "/api/runs")
	require.NoError(t, err)
	defer resp.Body.Close()

	var runs []api.RunSummaryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Len(t, runs, 2)
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
