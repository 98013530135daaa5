// Package tasksync keeps the front-end's view of remote tasks consistent.
// It composes the task API with the shared query cache: reads go through
// the cache, writes call the API and then notify the user and invalidate
// the affected cache namespaces.
package tasksync

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/querycache"
	"github.com/gurkanbulca/taskdesk/internal/transport"
	"github.com/gurkanbulca/taskdesk/pkg/notify"
)

const resourceTask = "task"

// Key namespaces used for task queries.
func TaskKey() querycache.Key {
	return querycache.Key{resourceTask}
}

func DetailKey(taskID string) querycache.Key {
	return querycache.Key{resourceTask, "detail", taskID}
}

func ListKey(f task.ListFilter) querycache.Key {
	return querycache.Key{resourceTask, "list", f.ProjectID, f.Status, f.Priority}
}

// Deps are the collaborators shared by every task view. Task queries use the
// stale and GC times Cache was created with.
type Deps struct {
	Cache    *querycache.Cache
	Tasks    task.API
	Notifier notify.Notifier
}

// outcome names the notices of one mutation verb.
type outcome struct {
	name     string
	success  string
	fallback string
}

var (
	opCreate           = outcome{"create task", "Task created successfully", "Failed to create task"}
	opUpdate           = outcome{"update task", "Task updated successfully", "Failed to update task"}
	opDelete           = outcome{"delete task", "Task deleted successfully", "Failed to delete task"}
	opUpload           = outcome{"upload attachment", "File uploaded successfully", "Failed to upload file"}
	opDeleteAttachment = outcome{"delete attachment", "Attachment deleted successfully", "Failed to delete attachment"}
)

// settle applies the side effects of a finished mutation. Nothing happens
// once lifetime has ended; the caller still receives the result.
func settle(ctx, lifetime context.Context, n notify.Notifier, cache *querycache.Cache, op outcome, err error, invalidate ...querycache.Key) {
	if lifetime.Err() != nil {
		log.Printf("[INFO] %s settled after its view closed, side effects skipped", op.name)
		return
	}
	if err != nil {
		n.Error(ctx, transport.MessageOr(err, op.fallback))
		return
	}
	n.Success(ctx, op.success)
	for _, k := range invalidate {
		cache.Invalidate(k)
	}
}

// inflight counts running calls of one verb.
type inflight struct {
	n atomic.Int32
}

func (f *inflight) start() func() {
	f.n.Add(1)
	return func() { f.n.Add(-1) }
}

func (f *inflight) active() bool {
	return f.n.Load() > 0
}
