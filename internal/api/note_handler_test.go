package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/errbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteLifecycle(t *testing.T) {
	a := newTestAPI(t, nil)

	resp := a.do(t, http.MethodPost, "/api/notes", CreateNoteRequest{
		Title: "Derivatives",
		Blocks: []BlockRequest{
			{Kind: "heading", Content: "Chain rule"},
			{Content: "f(g(x))' = f'(g(x)) g'(x)"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.Note](t, resp)
	require.Len(t, created.Blocks, 2)
	assert.Equal(t, "text", created.Blocks[1].Kind)
	assert.Equal(t, 1, created.Blocks[1].Position)

	a.clock.Set(now.Add(time.Hour))
	blocks := []BlockRequest{{ID: created.Blocks[1].ID, Content: "rewritten"}}
	resp = a.do(t, http.MethodPatch, "/api/notes/"+created.ID, UpdateNoteRequest{Blocks: &blocks})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.Note](t, resp)
	require.Len(t, updated.Blocks, 1)
	assert.Equal(t, created.Blocks[1].ID, updated.Blocks[0].ID)
	assert.Equal(t, 0, updated.Blocks[0].Position)

	resp = a.do(t, http.MethodPost, "/api/notes/"+created.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.Note](t, resp).IsArchived)

	resp = a.do(t, http.MethodPost, "/api/notes/"+created.ID+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[domain.Note](t, resp).IsArchived)

	resp = a.do(t, http.MethodPost, "/api/notes/"+created.ID+"/favorite", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.Note](t, resp).IsFavorite)

	resp = a.do(t, http.MethodGet, "/api/notes", nil)
	assert.Equal(t, 1, decode[NoteListResponse](t, resp).Count)

	resp = a.do(t, http.MethodDelete, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoteErrors(t *testing.T) {
	a := newTestAPI(t, nil)
	unknown := uuid.NewString()

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"missing title", http.MethodPost, "/api/notes", CreateNoteRequest{}, http.StatusBadRequest},
		{"bad block id", http.MethodPost, "/api/notes", CreateNoteRequest{Title: "x", Blocks: []BlockRequest{{ID: "b1"}}}, http.StatusBadRequest},
		{"unknown update", http.MethodPatch, "/api/notes/" + unknown, UpdateNoteRequest{}, http.StatusNotFound},
		{"unknown favorite", http.MethodPost, "/api/notes/" + unknown + "/favorite", nil, http.StatusNotFound},
		{"unknown delete", http.MethodDelete, "/api/notes/" + unknown, nil, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := a.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
