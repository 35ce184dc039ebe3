package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanegraph/lanegraph/pkg/lanes"
	"github.com/lanegraph/lanegraph/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(Options{Store: store.NewMemoryStore()})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func mergeFixture() createRequest {
	return createRequest{
		RepoID: "repo-1",
		Commits: []lanes.Commit{
			{ID: "d", Parents: []string{"c"}, IsCommitted: true},
			{ID: "c", Parents: []string{"b", "a"}, IsCommitted: true},
			{ID: "b", Parents: nil, IsCommitted: true},
			{ID: "a", Parents: nil, IsCommitted: true},
		},
	}
}

func createLayout(t *testing.T, ts *httptest.Server, req createRequest) store.Record {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/layouts", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[store.Record](t, resp)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCreateAndGetLayout(t *testing.T) {
	ts := newTestServer(t)

	rec := createLayout(t, ts, mergeFixture())
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "repo-1", rec.RepoID)
	require.NotNil(t, rec.Layout)
	assert.Len(t, rec.Layout.Rows, 4)
	assert.True(t, rec.Layout.Rows[1].IsMerge)
	assert.Equal(t, 2, rec.Layout.MaxColumns)

	resp, err := http.Get(fmt.Sprintf("%s/api/layouts/%s", ts.URL, rec.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[store.Record](t, resp)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Layout.Rows, got.Layout.Rows)
}

func TestCreateRejectsEmptyCommitList(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/layouts", createRequest{RepoID: "repo-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decode[errorResponse](t, resp)
	assert.Equal(t, "INVALID_INPUT", errResp.Error.Code)
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/layouts", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMissingLayout(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/layouts/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errResp := decode[errorResponse](t, resp)
	assert.Equal(t, "LAYOUT_NOT_FOUND", errResp.Error.Code)
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t)
	rec := createLayout(t, ts, mergeFixture())

	resp := postJSON(t, fmt.Sprintf("%s/api/layouts/%s/preview", ts.URL, rec.ID), previewRequest{
		Heads: []string{"a"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID     string        `json:"id"`
		Layout *lanes.Layout `json:"layout"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, rec.ID, body.ID)
	require.Len(t, body.Layout.Rows, 5)
	assert.Equal(t, lanes.PreviewCommitID, body.Layout.Rows[0].CommitID)
	assert.True(t, body.Layout.Rows[0].IsMergePreview)
	assert.Equal(t, rec.Layout.Rows, body.Layout.Rows[1:])

	// The stored record is untouched by the overlay.
	getResp, err := http.Get(fmt.Sprintf("%s/api/layouts/%s", ts.URL, rec.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	stored := decode[store.Record](t, getResp)
	assert.Len(t, stored.Layout.Rows, 4)
}

func TestPreviewUnknownHead(t *testing.T) {
	ts := newTestServer(t)
	rec := createLayout(t, ts, mergeFixture())

	resp := postJSON(t, fmt.Sprintf("%s/api/layouts/%s/preview", ts.URL, rec.ID), previewRequest{
		Heads: []string{"missing"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	errResp := decode[errorResponse](t, resp)
	assert.Equal(t, "UNKNOWN_HEAD", errResp.Error.Code)
}

func TestPreviewMissingLayout(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/layouts/nope/preview", previewRequest{Heads: []string{"a"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListLayouts(t *testing.T) {
	ts := newTestServer(t)
	createLayout(t, ts, mergeFixture())
	createLayout(t, ts, mergeFixture())

	other := mergeFixture()
	other.RepoID = "repo-2"
	createLayout(t, ts, other)

	resp, err := http.Get(ts.URL + "/api/layouts?repo_id=repo-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Layouts []*store.Record `json:"layouts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Layouts, 2)

	resp, err = http.Get(ts.URL + "/api/layouts?repo_id=repo-1&limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Layouts, 1)

	resp, err = http.Get(ts.URL + "/api/layouts?limit=-3")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteLayout(t *testing.T) {
	ts := newTestServer(t)
	rec := createLayout(t, ts, mergeFixture())

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/layouts/%s", ts.URL, rec.ID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := http.Get(fmt.Sprintf("%s/api/layouts/%s", ts.URL, rec.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

	delAgain, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delAgain.Body.Close()
	assert.Equal(t, http.StatusNotFound, delAgain.StatusCode)
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "fixed-id", resp.Header.Get("X-Request-ID"))
}
