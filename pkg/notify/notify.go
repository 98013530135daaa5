// pkg/notify/notify.go
package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows transient success and error notices to the user.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// Notice is one shown notification.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, level Level, message string)

func (f Func) Success(ctx context.Context, message string) { f(ctx, LevelSuccess, message) }
func (f Func) Error(ctx context.Context, message string)   { f(ctx, LevelError, message) }

// LogNotifier writes notices to the standard logger.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Success(_ context.Context, message string) {
	log.Printf("[INFO] notice: %s", message)
}

func (LogNotifier) Error(_ context.Context, message string) {
	log.Printf("[ERROR] notice: %s", message)
}

// Multi fans a notice out to every notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(ctx context.Context, level Level, message string) {
		for _, n := range notifiers {
			if level == LevelError {
				n.Error(ctx, message)
			} else {
				n.Success(ctx, message)
			}
		}
	})
}

// Collector keeps the notices raised while serving one request so they can
// be handed to the next page render.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *Collector) Success(_ context.Context, message string) { c.add(LevelSuccess, message) }
func (c *Collector) Error(_ context.Context, message string)   { c.add(LevelError, message) }

func (c *Collector) add(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{Level: level, Message: message, At: time.Now()})
}

// Notices returns a copy of the collected notices.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// MockNotifier records notices for tests.
type MockNotifier struct {
	Collector
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// GetNotices returns all recorded notices (for testing)
func (m *MockNotifier) GetNotices() []Notice {
	return m.Notices()
}

// GetLastNotice returns the last recorded notice (for testing)
func (m *MockNotifier) GetLastNotice() *Notice {
	notices := m.Notices()
	if len(notices) == 0 {
		return nil
	}
	return &notices[len(notices)-1]
}

// Clear clears all recorded notices (for testing)
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	m.notices = nil
	m.mu.Unlock()
}
