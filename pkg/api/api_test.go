package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/adapters/fs"
	"github.com/aretw0/easel/pkg/api"
	"github.com/aretw0/easel/pkg/codec"
	"github.com/aretw0/easel/pkg/core"
	"github.com/aretw0/easel/pkg/idgen"
)

func newServer(t *testing.T) (*httptest.Server, *core.Service) {
	t.Helper()
	repo, err := fs.NewRepository(fs.Config{Path: t.TempDir(), Gitless: true})
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(context.Background()))
	svc := core.NewService(repo, idgen.Sequential("wb"))

	srv := httptest.NewServer(api.New(svc).Router())
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAPI_Lifecycle(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/boards", `{"owner":"ana","title":"  Roadmap  "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.BoardSummary](t, resp)
	assert.Equal(t, "wb1", created.ID)
	assert.Equal(t, "Roadmap", created.Title)
	assert.Equal(t, "/boards/wb1", resp.Header.Get("Location"))

	resp = do(t, http.MethodGet, srv.URL+"/boards?owner=ana", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]api.BoardSummary](t, resp), 1)

	resp = do(t, http.MethodGet, srv.URL+"/boards?owner=bo", "")
	assert.Empty(t, decodeBody[[]api.BoardSummary](t, resp))

	patch := `{"title":"Roadmap 2026","elements":[{"id":"n1","kind":"stickyNote","x":10,"y":10,"color":"#fef08a","content":"ship"}]}`
	resp = do(t, http.MethodPatch, srv.URL+"/boards/wb1", patch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[codec.Document](t, resp)
	assert.Equal(t, "Roadmap 2026", doc.Title)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, 150.0, *doc.Elements[0].Width, "defaults are filled in")

	resp = do(t, http.MethodGet, srv.URL+"/boards/wb1/export?format=yaml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="Roadmap 2026.yaml"`, resp.Header.Get("Content-Disposition"))

	resp = do(t, http.MethodDelete, srv.URL+"/boards/wb1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/boards/wb1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/boards/wb1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "deleting twice is harmless")
}

func TestAPI_Errors(t *testing.T) {
	srv, svc := newServer(t)
	_, err := svc.Create(context.Background(), "", "Existing")
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"Empty Title", http.MethodPost, "/boards", `{"title":"   "}`, http.StatusBadRequest},
		{"Bad JSON", http.MethodPost, "/boards", `{"title":`, http.StatusBadRequest},
		{"Unknown Field", http.MethodPost, "/boards", `{"name":"x"}`, http.StatusBadRequest},
		{"Missing Board", http.MethodGet, "/boards/ghost", "", http.StatusNotFound},
		{"Rename Missing", http.MethodPatch, "/boards/ghost", `{"title":"x"}`, http.StatusNotFound},
		{"Invalid Element", http.MethodPatch, "/boards/wb1", `{"elements":[{"id":"a","kind":"hexagon"}]}`, http.StatusBadRequest},
		{"Bad Export Format", http.MethodGet, "/boards/wb1/export?format=pdf", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeBody[api.ErrorResponse](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}
}
