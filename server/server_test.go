package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/existflow/irontrack/internal/codec"
	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/transfer"
)

var testNow = time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC)

type fixture struct {
	srv    *Server
	store  *db.DB
	parent *model.Task
	child  *model.Task
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	store, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	parent := model.MustTask(model.Fields{
		model.FieldName: "Release",
		model.FieldDate: testNow.Add(24 * time.Hour).Unix(),
	})
	if err := store.CreateTask(ctx, parent); err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child := model.MustTask(model.Fields{model.FieldName: "Changelog", model.FieldParent: parent.ID()})
	if err := store.CreateTask(ctx, child); err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := store.AddRecord(ctx, &model.Record{Task: parent.ID(), StartAt: 100, Seconds: 60}); err != nil {
		t.Fatalf("add record: %v", err)
	}
	if err := store.AddRecord(ctx, &model.Record{Task: child.ID(), StartAt: 200, Seconds: 30}); err != nil {
		t.Fatalf("add record: %v", err)
	}
	if _, err := store.StartRecord(ctx, parent.ID(), "", testNow.Add(-10*time.Minute)); err != nil {
		t.Fatalf("start record: %v", err)
	}

	srv := New(store, Options{
		Token:  token,
		Locale: display.Locale{Tag: display.DefaultLocale().Tag, Location: time.UTC},
		Now:    func() time.Time { return testNow },
	})
	return &fixture{srv: srv, store: store, parent: parent, child: child}
}

func (f *fixture) do(t *testing.T, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetTask(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/api/v1/tasks/1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Release" || got.Duration != 90 {
		t.Fatalf("unexpected task %+v", got)
	}
	if got.LiveDuration != 90+600 {
		t.Fatalf("expected live duration 690, got %d", got.LiveDuration)
	}
	if got.DurationDisplay != "0:01:30" || got.DateDisplay != "Tomorrow" {
		t.Fatalf("unexpected display values %+v", got)
	}
}

func TestGetTaskErrors(t *testing.T) {
	f := newFixture(t, "")
	if rec := f.do(t, http.MethodGet, "/api/v1/tasks/abc", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/tasks/999", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestVariant(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/api/v1/tasks/1/variant", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != codec.ContentType {
		t.Fatalf("unexpected content type %q", ct)
	}

	tasks, ok := codec.DecodeList(rec.Body.Bytes())
	if !ok || len(tasks) != 2 {
		t.Fatalf("expected task and child, got %v %v", tasks, ok)
	}
	if !tasks[0].Equal(f.parent) || !tasks[1].Equal(f.child) {
		t.Fatalf("unexpected variant contents %v", tasks)
	}
}

func TestHandoff(t *testing.T) {
	f := newFixture(t, "")

	edited := f.child.Duplicate()
	edited.SetName("Changelog and notes")
	edited.SetDone(true)
	fresh := model.MustTask(model.Fields{model.FieldName: "new"})
	unknown := model.MustTask(model.Fields{model.FieldID: int64(404)})

	payload, err := codec.EncodeList([]*model.Task{f.parent, edited, fresh, unknown})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec := f.do(t, http.MethodPost, "/api/v1/handoff", payload, map[string]string{"Content-Type": codec.ContentType})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transfer.HandoffResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tasks) != 4 {
		t.Fatalf("expected 4 results, got %+v", resp)
	}
	if !resp.Tasks[0].Known || len(resp.Tasks[0].DifferentProperties) != 0 {
		t.Fatalf("unchanged task reported %+v", resp.Tasks[0])
	}
	props := resp.Tasks[1].DifferentProperties
	if len(props) != 2 || props[0] != model.FieldName || props[1] != model.FieldDone {
		t.Fatalf("unexpected diff %v", props)
	}
	if resp.Tasks[2].Known || resp.Tasks[3].Known {
		t.Fatalf("new and unknown tasks should not be known: %+v", resp.Tasks)
	}

	// nothing was written
	stored, err := f.store.GetTask(context.Background(), f.child.ID())
	if err != nil || stored.Name() != "Changelog" {
		t.Fatalf("handoff modified the store: %v %v", stored, err)
	}
}

func TestHandoffRejectsMismatch(t *testing.T) {
	f := newFixture(t, "")
	single, err := codec.Encode(f.parent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec := f.do(t, http.MethodPost, "/api/v1/handoff", single, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestTokenRequired(t *testing.T) {
	f := newFixture(t, "s3cret")

	if rec := f.do(t, http.MethodGet, "/api/v1/tasks/1", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/tasks/1", nil, map[string]string{"Authorization": "Bearer nope"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/tasks/1", nil, map[string]string{"Authorization": "Bearer s3cret"}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/health", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("health should stay public, got %d", rec.Code)
	}
}

func TestClientAgainstServer(t *testing.T) {
	f := newFixture(t, "s3cret")
	ts := httptest.NewServer(f.srv.Router())
	defer ts.Close()

	client := transfer.NewClient(ts.URL, "s3cret")
	tasks, err := client.Pull(context.Background(), f.parent.ID())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	resp, err := client.Push(context.Background(), tasks)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	for _, d := range resp.Tasks {
		if !d.Known || len(d.DifferentProperties) != 0 {
			t.Fatalf("round trip should match the store: %+v", d)
		}
	}
}
