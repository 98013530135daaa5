package tasksync

import (
	"context"
	"log"
	"sync"

	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/querycache"
)

// DetailState is the last known remote state of one task.
type DetailState struct {
	Task    *models.Task
	Loading bool
	Err     error
}

// TaskDetail is bound to one task view. Its verbs are independent: none
// blocks another and identical calls are never coalesced.
type TaskDetail struct {
	deps     Deps
	taskID   string
	lifetime context.Context
	cancel   context.CancelFunc

	mu    sync.RWMutex
	state DetailState

	loading            inflight
	creating           inflight
	updating           inflight
	deleting           inflight
	uploading          inflight
	deletingAttachment inflight
}

// NewTaskDetail creates a view over taskID. An empty taskID is the "new
// task" view: reads are skipped and only CreateTask is meaningful. The view
// ends when lifetime is done or Close is called.
func NewTaskDetail(lifetime context.Context, deps Deps, taskID string) *TaskDetail {
	ctx, cancel := context.WithCancel(lifetime)
	return &TaskDetail{
		deps:     deps,
		taskID:   taskID,
		lifetime: ctx,
		cancel:   cancel,
	}
}

// Close ends the view. Mutations settling afterwards neither notify nor
// invalidate.
func (d *TaskDetail) Close() {
	d.cancel()
}

func (d *TaskDetail) TaskID() string {
	return d.taskID
}

// Load reads the task through the cache.
func (d *TaskDetail) Load(ctx context.Context) DetailState {
	if d.taskID == "" {
		return DetailState{}
	}

	done := d.loading.start()
	d.setLoading()
	t, err := querycache.Fetch(ctx, d.deps.Cache, DetailKey(d.taskID),
		func(ctx context.Context) (*models.Task, error) {
			return d.deps.Tasks.GetTaskDetail(ctx, d.taskID)
		},
	)
	done()
	if err != nil {
		log.Printf("[ERROR] fetch task detail %s: %v", d.taskID, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = DetailState{Task: d.state.Task, Err: err, Loading: d.loading.active()}
	} else {
		d.state = DetailState{Task: t, Loading: d.loading.active()}
	}
	return d.state
}

// Refetch drops the cached copy and loads again.
func (d *TaskDetail) Refetch(ctx context.Context) DetailState {
	if d.taskID != "" {
		d.deps.Cache.Invalidate(DetailKey(d.taskID))
	}
	return d.Load(ctx)
}

// State returns the last loaded state.
func (d *TaskDetail) State() DetailState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.state
	s.Loading = d.loading.active()
	return s
}

func (d *TaskDetail) setLoading() {
	d.mu.Lock()
	d.state.Loading = true
	d.mu.Unlock()
}

func (d *TaskDetail) CreateTask(ctx context.Context, body models.CreateTaskRequest) (*models.Task, error) {
	defer d.creating.start()()

	t, err := d.deps.Tasks.CreateTask(ctx, body)
	settle(ctx, d.lifetime, d.deps.Notifier, d.deps.Cache, opCreate, err, TaskKey())
	return t, err
}

// UpdateTask sends a partial update for id.
func (d *TaskDetail) UpdateTask(ctx context.Context, id string, body models.UpdateTaskRequest) (*models.Task, error) {
	defer d.updating.start()()

	t, err := d.deps.Tasks.UpdateTask(ctx, id, body)
	var keys []querycache.Key
	if err == nil {
		if t != nil && t.ID != "" {
			id = t.ID
		}
		keys = append(keys, DetailKey(id))
	}
	keys = append(keys, TaskKey())
	settle(ctx, d.lifetime, d.deps.Notifier, d.deps.Cache, opUpdate, err, keys...)
	return t, err
}

func (d *TaskDetail) DeleteTask(ctx context.Context, id string) error {
	defer d.deleting.start()()

	err := d.deps.Tasks.DeleteTask(ctx, id)
	settle(ctx, d.lifetime, d.deps.Notifier, d.deps.Cache, opDelete, err, TaskKey())
	return err
}

func (d *TaskDetail) UploadAttachment(ctx context.Context, taskID string, file task.File) (*models.AttachmentUpload, error) {
	defer d.uploading.start()()

	up, err := d.deps.Tasks.UploadTaskAttachment(ctx, taskID, file)
	settle(ctx, d.lifetime, d.deps.Notifier, d.deps.Cache, opUpload, err, DetailKey(taskID))
	return up, err
}

func (d *TaskDetail) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	defer d.deletingAttachment.start()()

	err := d.deps.Tasks.DeleteAttachment(ctx, taskID, attachmentID)
	settle(ctx, d.lifetime, d.deps.Notifier, d.deps.Cache, opDeleteAttachment, err, DetailKey(taskID))
	return err
}

func (d *TaskDetail) IsLoading() bool             { return d.loading.active() }
func (d *TaskDetail) IsCreating() bool            { return d.creating.active() }
func (d *TaskDetail) IsUpdating() bool            { return d.updating.active() }
func (d *TaskDetail) IsDeleting() bool            { return d.deleting.active() }
func (d *TaskDetail) IsUploadingAttachment() bool { return d.uploading.active() }
func (d *TaskDetail) IsDeletingAttachment() bool  { return d.deletingAttachment.active() }
