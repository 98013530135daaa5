package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token() (string, error) { return "", errors.New("no secret") }

func TestClient_DoUnwrapsEnvelope(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":"TASK-009","title":"hello"},"statusCode":201,"isSuccess":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("tok")))

	var out struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/tasks",
		Body:   map[string]string{"title": "hello"},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "TASK-009", out.ID)
	assert.Equal(t, "hello", out.Title)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "hello", gotBody["title"])
}

func TestClient_DoReusesContextRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := ContextWithRequestID(context.Background(), "req-42")
	require.NoError(t, New(srv.URL).Do(ctx, Request{Method: http.MethodDelete, Path: "/v1/tasks/1"}, nil))
	assert.Equal(t, "req-42", got)
}

func TestClient_DoErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		fallback    string
		wantText    string
	}{
		{
			name:        "structured error body",
			status:      http.StatusConflict,
			body:        `{"statusCode":409,"isSuccess":false,"message":"Title already exists"}`,
			wantMessage: "Title already exists",
			fallback:    "Failed to create task",
			wantText:    "Title already exists",
		},
		{
			name:     "plain text error body",
			status:   http.StatusInternalServerError,
			body:     `upstream exploded`,
			fallback: "Failed to create task",
			wantText: "Failed to create task",
		},
		{
			name:     "json body without message",
			status:   http.StatusBadRequest,
			body:     `{"statusCode":400,"isSuccess":false}`,
			fallback: "Failed to update task",
			wantText: "Failed to update task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := New(srv.URL).Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/tasks"}, nil)
			require.Error(t, err)

			var terr *Error
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.status, terr.StatusCode)
			assert.Equal(t, tt.wantMessage, terr.Message)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.wantText, MessageOr(err, tt.fallback))
		})
	}
}

func TestClient_DoNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	err := New(addr).Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/tasks/1"}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, "Failed to delete task", MessageOr(err, "Failed to delete task"))
}

func TestClient_DoTokenFailure(t *testing.T) {
	err := New("http://127.0.0.1:1", WithTokenSource(failingToken{})).
		Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/tasks"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bearer token")
}

func TestClient_DoQueryAndMultipart(t *testing.T) {
	var gotQuery url.Values
	var gotField, gotFileName, gotContent, gotPartType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			for field, files := range r.MultipartForm.File {
				gotField = field
				gotFileName = files[0].Filename
				gotPartType = files[0].Header.Get("Content-Type")
				f, err := files[0].Open()
				require.NoError(t, err)
				b, _ := io.ReadAll(f)
				gotContent = string(b)
				f.Close()
			}
		}
		io.WriteString(w, `{"data":{"url":"/files/a.png","name":"a.png"},"statusCode":200,"isSuccess":true}`)
	}))
	defer srv.Close()

	var out struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	err := New(srv.URL).Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/tasks/TASK-001/attachments",
		Query:  url.Values{"source": {"web"}},
		File: &Multipart{
			FileName:    "a.png",
			ContentType: "image/png",
			Content:     strings.NewReader("png-bytes"),
		},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "web", gotQuery.Get("source"))
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "a.png", gotFileName)
	assert.Equal(t, "image/png", gotPartType)
	assert.Equal(t, "png-bytes", gotContent)
	assert.Equal(t, "a.png", out.Name)
}

func TestClient_DoNullData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":null,"statusCode":200,"isSuccess":true}`)
	}))
	defer srv.Close()

	out := struct{ ID string }{ID: "untouched"}
	require.NoError(t, New(srv.URL).Do(context.Background(), Request{Method: http.MethodDelete, Path: "/v1/tasks/1"}, &out))
	assert.Equal(t, "untouched", out.ID)
}
