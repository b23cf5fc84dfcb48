package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	"github.com/fastygo/planner/internal/middleware"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/repository"
	destinationUC "github.com/fastygo/planner/usecase/destination"
	taskUC "github.com/fastygo/planner/usecase/task"
)

type memTasks struct {
	tasks     map[string]*domain.Task
	reminders map[string][]domain.Reminder
}

func newMemTasks() *memTasks {
	return &memTasks{tasks: map[string]*domain.Task{}, reminders: map[string][]domain.Reminder{}}
}

func (m *memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if task, ok := m.tasks[id]; ok {
		return task, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (m *memTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, task := range m.tasks {
		if task.UserID == filter.UserID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *memTasks) CreateWithReminders(_ context.Context, task *domain.Task, reminders []domain.Reminder) (*domain.Task, error) {
	task.ID = "task-" + task.Title
	for i := range reminders {
		reminders[i].TaskID = task.ID
	}
	m.tasks[task.ID] = task
	m.reminders[task.ID] = reminders
	return task, nil
}

func (m *memTasks) Update(_ context.Context, task *domain.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	delete(m.tasks, id)
	delete(m.reminders, id)
	return nil
}

func (m *memTasks) Insert(context.Context, []domain.Reminder) ([]string, error) { return nil, nil }

func (m *memTasks) ListUnsent(context.Context) ([]domain.Reminder, error) { return nil, nil }

func (m *memTasks) ListByTask(_ context.Context, taskID string) ([]domain.Reminder, error) {
	return m.reminders[taskID], nil
}

func (m *memTasks) MarkSent(context.Context, string, time.Time) error { return nil }

type memDestinations map[string]domain.NotificationDestination

func (m memDestinations) GetByUserID(_ context.Context, userID string) (*domain.NotificationDestination, error) {
	dest, ok := m[userID]
	if !ok {
		return nil, domain.ErrDestinationNotFound
	}
	return &dest, nil
}

func (m memDestinations) Upsert(_ context.Context, dest *domain.NotificationDestination) error {
	m[dest.UserID] = *dest
	return nil
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
}

func newRequest(method, body, userID string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetBodyString(body)
	if userID != "" {
		ctx.Request.Header.Set(middleware.HeaderUserID, userID)
	}
	return &ctx
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, ctx.Response.Body())
	}
	return env
}

func newTaskHandler() (*TaskHandler, *memTasks) {
	store := newMemTasks()
	uc := taskUC.New(store, store, nil)
	return NewTaskHandler(uc, httpcontext.NewAdapter(time.Second), nil), store
}

func TestCreateTaskHandler(t *testing.T) {
	h, store := newTaskHandler()

	ctx := newRequest(http.MethodPost, `{"title":"dentist","scheduled_at":"2025-03-10T15:00:00Z","timezone":"Europe/Berlin"}`, "user-1")
	h.CreateTask(ctx)

	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	env := decodeEnvelope(t, ctx)
	var task domain.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.UserID != "user-1" || task.Timezone != "Europe/Berlin" {
		t.Fatalf("unexpected task %#v", task)
	}
	if len(store.reminders[task.ID]) != 4 {
		t.Fatalf("expected 4 reminders, got %d", len(store.reminders[task.ID]))
	}
	if len(ctx.Response.Header.Peek("X-Request-ID")) == 0 {
		t.Fatalf("expected request id header")
	}
}

func TestCreateTaskHandlerRejectsBadInput(t *testing.T) {
	h, _ := newTaskHandler()

	cases := []struct {
		name   string
		body   string
		userID string
		status int
	}{
		{name: "no user", body: `{}`, status: http.StatusUnauthorized},
		{name: "bad json", body: `{`, userID: "user-1", status: http.StatusBadRequest},
		{name: "bad time", body: `{"title":"x","scheduled_at":"tomorrow"}`, userID: "user-1", status: http.StatusBadRequest},
		{name: "missing title", body: `{"scheduled_at":"2025-03-10T15:00:00Z"}`, userID: "user-1", status: http.StatusBadRequest},
		{name: "bad zone", body: `{"title":"x","scheduled_at":"2025-03-10T15:00:00Z","timezone":"Mars/Base"}`, userID: "user-1", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newRequest(http.MethodPost, tc.body, tc.userID)
			h.CreateTask(ctx)
			if ctx.Response.StatusCode() != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, ctx.Response.StatusCode(), ctx.Response.Body())
			}
		})
	}
}

func TestTaskHandlerOwnership(t *testing.T) {
	h, store := newTaskHandler()
	store.tasks["task-1"] = &domain.Task{ID: "task-1", UserID: "owner", Title: "x", Timezone: "UTC", ScheduledAt: time.Now()}

	ctx := newRequest(http.MethodGet, "", "intruder")
	ctx.SetUserValue("id", "task-1")
	h.GetReminders(ctx)
	if ctx.Response.StatusCode() != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", ctx.Response.StatusCode())
	}

	ctx = newRequest(http.MethodDelete, "", "owner")
	ctx.SetUserValue("id", "missing")
	h.DeleteTask(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}

	ctx = newRequest(http.MethodDelete, "", "owner")
	ctx.SetUserValue("id", "task-1")
	h.DeleteTask(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	if _, ok := store.tasks["task-1"]; ok {
		t.Fatalf("task was not deleted")
	}
}

func TestDestinationHandlerRegister(t *testing.T) {
	repo := memDestinations{}
	h := NewDestinationHandler(destinationUC.New(repo, nil), nil, nil)

	ctx := newRequest(http.MethodPost, `{"telegram_chat_id":"123456","telegram_user_id":"987"}`, "user-1")
	h.Register(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if repo["user-1"].ChatID != "123456" || repo["user-1"].ExternalUserID != "987" {
		t.Fatalf("destination not stored: %#v", repo["user-1"])
	}

	ctx = newRequest(http.MethodPost, `{"telegram_user_id":"987"}`, "user-1")
	h.Register(ctx)
	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler(staticStatus{PostgreSQL: true, Redis: true, Journal: true, DeadLetters: 3}, nil, nil)
	ctx := newRequest(http.MethodGet, "", "")
	healthy.Check(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}

	degraded := NewHealthHandler(staticStatus{Redis: true}, nil, nil)
	ctx = newRequest(http.MethodGet, "", "")
	degraded.Check(ctx)
	if ctx.Response.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", ctx.Response.StatusCode())
	}
	if env := decodeEnvelope(t, ctx); env.Code != "DEGRADED" {
		t.Fatalf("unexpected code %q", env.Code)
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrTaskNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrInvalidPayload, http.StatusBadRequest},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if status, _ := mapError(tc.err); status != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, status)
		}
	}
}
