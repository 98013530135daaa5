package devapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskdesk/internal/config"
	"github.com/gurkanbulca/taskdesk/internal/database"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/repository"
	"github.com/gurkanbulca/taskdesk/internal/transport"
	"github.com/gurkanbulca/taskdesk/pkg/auth"
)

type testEnv struct {
	url    string
	client *transport.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	tasks := repository.NewTaskRepository(db)
	catalogs := repository.NewStatusCatalogRepository(db)
	require.NoError(t, Seed(ctx, tasks, catalogs))

	tm := auth.NewTokenManager("test-secret", time.Minute)
	srv := NewServer(Options{
		Tasks:          tasks,
		ContractTypes:  repository.NewContractTypeRepository(db),
		StatusCatalogs: catalogs,
		Files:          NewFileStore(t.TempDir()),
		TokenManager:   tm,
		MaxUploadBytes: 1 << 20,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		url:    ts.URL,
		client: transport.New(ts.URL, transport.WithTokenSource(auth.NewTokenSource(tm, "test"))),
	}
}

func TestServer_RequiresServiceToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.url + "/v1/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := http.Get(env.url + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_ListTasks(t *testing.T) {
	env := newTestEnv(t)

	var all []models.Task
	require.NoError(t, env.client.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/v1/tasks"}, &all))
	assert.Len(t, all, 3)

	req, err := http.NewRequest(http.MethodGet, env.url+"/v1/tasks?pageSize=2&pageNumber=2", nil)
	require.NoError(t, err)
	tok, err := auth.NewTokenManager("test-secret", time.Minute).IssueServiceToken("test")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var page models.PageEnvelope[models.Task]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.True(t, page.IsSuccess)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.PageNumber)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Write API documentation", page.Data[0].Title)

	var filtered []models.Task
	require.NoError(t, env.client.Do(context.Background(), transport.Request{
		Method: http.MethodGet,
		Path:   "/v1/tasks",
		Query:  map[string][]string{"status": {"todo"}},
	}, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "TASK-002", filtered[0].ID)
}

func TestServer_GetTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var task models.Task
	require.NoError(t, env.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/v1/tasks/TASK-001"}, &task))
	assert.Equal(t, "Build user authentication system", task.Title)
	assert.Equal(t, []string{"1", "2"}, task.AssigneeIDs())
	assert.Len(t, task.Comments, 2)
	assert.Len(t, task.Subtasks, 3)
	require.NotNil(t, task.Reporter)
	assert.Equal(t, "Mike Johnson", task.Reporter.Name)

	err := env.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/v1/tasks/TASK-404"}, &task)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, transport.StatusCode(err))
	assert.Equal(t, "Task not found", transport.MessageOr(err, ""))
}

func TestServer_CreateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	body := models.CreateTaskRequest{
		Title:       "  Plan sprint review  ",
		Status:      models.StatusTodo,
		Priority:    models.PriorityMedium,
		AssigneeIDs: []string{"3"},
		Labels:      []string{"planning"},
	}
	var created models.Task
	require.NoError(t, env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/tasks", Body: body}, &created))
	assert.Equal(t, "TASK-004", created.ID)
	assert.Equal(t, "Plan sprint review", created.Title)
	assert.Equal(t, []string{"3"}, created.AssigneeIDs())

	err := env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/tasks", Body: body}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, transport.StatusCode(err))
	assert.Equal(t, "Title already exists", transport.MessageOr(err, ""))

	body.Title = "Another task"
	body.AssigneeIDs = nil
	err = env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/tasks", Body: body}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, transport.StatusCode(err))
	assert.Contains(t, transport.MessageOr(err, ""), "assigneeIds")

	body.AssigneeIDs = []string{"99"}
	err = env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/tasks", Body: body}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, transport.StatusCode(err))
}

func TestServer_UpdateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status := models.StatusReview
	var updated models.Task
	require.NoError(t, env.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/v1/tasks/TASK-002",
		Body:   models.UpdateTaskRequest{Status: &status},
	}, &updated))
	assert.Equal(t, models.StatusReview, updated.Status)
	assert.Equal(t, "Design dashboard UI", updated.Title)
	assert.Equal(t, []string{"3"}, updated.AssigneeIDs())

	early := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	err := env.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/v1/tasks/TASK-002",
		Body:   models.UpdateTaskRequest{DueDate: &early},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, transport.StatusCode(err))
	assert.Contains(t, transport.MessageOr(err, ""), "dueDate")

	taken := "Build user authentication system"
	err = env.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/v1/tasks/TASK-002",
		Body:   models.UpdateTaskRequest{Title: &taken},
	}, nil)
	assert.Equal(t, http.StatusConflict, transport.StatusCode(err))
}

func TestServer_DeleteTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.client.Do(ctx, transport.Request{Method: http.MethodDelete, Path: "/v1/tasks/TASK-003"}, nil))

	err := env.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/v1/tasks/TASK-003"}, nil)
	assert.Equal(t, http.StatusNotFound, transport.StatusCode(err))

	err = env.client.Do(ctx, transport.Request{Method: http.MethodDelete, Path: "/v1/tasks/TASK-003"}, nil)
	assert.Equal(t, http.StatusNotFound, transport.StatusCode(err))
}

func TestServer_Attachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var uploaded models.AttachmentUpload
	require.NoError(t, env.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/tasks/TASK-002/attachments",
		File: &transport.Multipart{
			FileName:    "notes.pdf",
			ContentType: "application/pdf",
			Content:     strings.NewReader("%PDF-1.4 notes"),
		},
	}, &uploaded))
	assert.Equal(t, "notes.pdf", uploaded.Name)
	assert.True(t, strings.HasPrefix(uploaded.URL, env.url+"/v1/tasks/TASK-002/attachments/"))

	// Content is served without a token.
	resp, err := http.Get(uploaded.URL)
	require.NoError(t, err)
	content, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 notes", string(content))

	var task models.Task
	require.NoError(t, env.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/v1/tasks/TASK-002"}, &task))
	require.Len(t, task.Attachments, 2)

	var added models.Attachment
	for _, a := range task.Attachments {
		if a.Name == "notes.pdf" {
			added = a
		}
	}
	require.NotEmpty(t, added.ID)
	assert.Equal(t, int64(len("%PDF-1.4 notes")), added.Size)

	require.NoError(t, env.client.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   "/v1/tasks/TASK-002/attachments/" + added.ID,
	}, nil))

	gone, err := http.Get(uploaded.URL)
	require.NoError(t, err)
	gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)

	err = env.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/tasks/TASK-404/attachments",
		File:   &transport.Multipart{FileName: "a.png", Content: strings.NewReader("x")},
	}, nil)
	assert.Equal(t, http.StatusNotFound, transport.StatusCode(err))
}

func TestServer_ContractTypes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	body := models.CreateContractTypeRequest{ContractTypeCode: "FT", ContractTypeName: "Full-time"}
	var created models.ContractType
	require.NoError(t, env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/contract-types", Body: body}, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "FT", created.ContractTypeCode)

	err := env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/contract-types", Body: body}, nil)
	assert.Equal(t, http.StatusConflict, transport.StatusCode(err))
	assert.Equal(t, "Contract type code already exists", transport.MessageOr(err, ""))

	err = env.client.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/v1/contract-types",
		Body: models.CreateContractTypeRequest{ContractTypeName: "No code"}}, nil)
	assert.Equal(t, http.StatusBadRequest, transport.StatusCode(err))

	var items []models.ContractType
	require.NoError(t, env.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/v1/contract-types"}, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Full-time", items[0].ContractTypeName)
}

func TestServer_StatusCatalogs(t *testing.T) {
	env := newTestEnv(t)

	var items []models.StatusCatalog
	require.NoError(t, env.client.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/v1/status-catalogs"}, &items))
	require.Len(t, items, len(models.Statuses))
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, models.StatusBacklog.Label(), items[0].StatusName)
}

func TestSeed_SkipsPopulatedDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db))

	tasks := repository.NewTaskRepository(db)
	catalogs := repository.NewStatusCatalogRepository(db)
	require.NoError(t, Seed(ctx, tasks, catalogs))
	require.NoError(t, Seed(ctx, tasks, catalogs))

	_, total, err := tasks.List(ctx, repository.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
