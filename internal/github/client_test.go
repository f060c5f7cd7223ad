package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("secret", "alice/jobs-data")
	require.NoError(t, err)
	return c.WithBaseURL(srv.URL)
}

func TestNewClient_InvalidRepo(t *testing.T) {
	for _, name := range []string{"", "alice", "/repo", "alice/"} {
		_, err := NewClient("t", name)
		assert.Error(t, err, name)
	}
}

func TestGetFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/jobs-data/contents/data/history.json", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))

		encoded := base64.StdEncoding.EncodeToString([]byte(`{"jobs":{}}`))
		json.NewEncoder(w).Encode(map[string]string{
			"path":     "data/history.json",
			"sha":      "abc123",
			"encoding": "base64",
			//split like the real API does
			"content": encoded[:4] + "\n" + encoded[4:],
		})
	})

	f, err := c.GetFile(context.Background(), "data/history.json", "main")
	require.NoError(t, err)
	assert.Equal(t, "abc123", f.SHA)
	assert.JSONEq(t, `{"jobs":{}}`, string(f.Content))
}

func TestGetFile_LargeFileFromBlob(t *testing.T) {
	payload := []byte(`{"jobs":{"腾讯|后端":{"company":"腾讯"}}}`)
	var blobCalls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/alice/jobs-data/contents/data/history.json":
			w.Write([]byte(`{"path":"data/history.json","sha":"abc","size":1500000,"content":"","encoding":"none"}`))
		case "/repos/alice/jobs-data/git/blobs/abc":
			blobCalls++
			encoded := base64.StdEncoding.EncodeToString(payload)
			json.NewEncoder(w).Encode(map[string]string{
				"sha":      "abc",
				"encoding": "base64",
				"content":  encoded[:8] + "\n" + encoded[8:],
			})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})

	f, err := c.GetFile(context.Background(), "data/history.json", "main")
	require.NoError(t, err)
	assert.Equal(t, 1, blobCalls)
	//the contents SHA is what the next PutFile must send
	assert.Equal(t, "abc", f.SHA)
	assert.Equal(t, payload, f.Content)
}

func TestGetFile_UnknownEncoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"path":"a.json","sha":"abc","size":3,"content":"abc","encoding":"utf-16"}`))
	})

	_, err := c.GetFile(context.Background(), "a.json", "")
	assert.Error(t, err)
}

func TestGetFile_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	_, err := c.GetFile(context.Background(), "missing.json", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		var body putContentsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "old-sha", body.SHA)
		assert.Equal(t, "data", body.Branch)
		content, err := base64.StdEncoding.DecodeString(body.Content)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(content))

		w.Write([]byte(`{"content":{"sha":"new-sha"}}`))
	})

	sha, err := c.PutFile(context.Background(), "history.json", "data", "update", []byte("hello"), "old-sha")
	require.NoError(t, err)
	assert.Equal(t, "new-sha", sha)
}

func TestPutFile_Conflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sha mismatch", http.StatusConflict)
	})

	_, err := c.PutFile(context.Background(), "history.json", "", "update", []byte("x"), "stale")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusConflict, httpErr.Status)
}

func TestIssues(t *testing.T) {
	var patched IssuePatch
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/alice/jobs-data/issues":
			assert.Equal(t, "registration", r.URL.Query().Get("labels"))
			assert.Equal(t, "open", r.URL.Query().Get("state"))
			w.Write([]byte(`[{"id":9001,"number":7,"title":"新用户注册: bob@example.com","state":"open","created_at":"2025-10-01T08:00:00Z"}]`))
		case r.Method == http.MethodPatch && r.URL.Path == "/repos/alice/jobs-data/issues/7":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	issues, err := c.ListOpenIssues(context.Background(), "registration")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 7, issues[0].Number)
	assert.Equal(t, int64(9001), issues[0].ID)

	err = c.UpdateIssue(context.Background(), 7, IssuePatch{State: "closed", Labels: []string{"verified"}})
	require.NoError(t, err)
	assert.Equal(t, "closed", patched.State)
	assert.Equal(t, []string{"verified"}, patched.Labels)
}

func TestListOpenIssues_Pages(t *testing.T) {
	var pages []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		n := 0
		switch page {
		case "1", "2":
			n = issuesPerPage
		case "3":
			n = 5
		}
		issues := make([]Issue, n)
		for i := range issues {
			issues[i] = Issue{Number: len(pages)*1000 + i, Title: "新用户注册: x@example.com"}
		}
		json.NewEncoder(w).Encode(issues)
	})

	issues, err := c.ListOpenIssues(context.Background(), "registration")
	require.NoError(t, err)
	assert.Len(t, issues, 2*issuesPerPage+5)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}
