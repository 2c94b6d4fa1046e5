package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/existflow/irontrack/internal/codec"
	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/model"
)

func sampleTasks() []*model.Task {
	return []*model.Task{
		model.MustTask(model.Fields{model.FieldID: int64(7), model.FieldName: "Quarterly review", model.FieldDate: int64(1792000000)}),
		model.MustTask(model.Fields{model.FieldID: int64(8), model.FieldName: "Collect numbers", model.FieldParent: int64(7), model.FieldPosition: int32(1)}),
	}
}

func assertSameTasks(t *testing.T, want, got []*model.Task) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if diff := got[i].DifferentProperties(want[i]); len(diff) != 0 {
			t.Fatalf("task %d differs in %v", i, diff)
		}
	}
}

func TestPackUnpackPlain(t *testing.T) {
	tasks := sampleTasks()
	data, err := Pack(tasks, "")
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	env, err := ReadEnvelope(data)
	if err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	if env.Encrypted || env.Salt != "" || env.Signature != codec.Signature() {
		t.Fatalf("unexpected envelope %+v", env)
	}

	got, err := Unpack(data, "")
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	assertSameTasks(t, tasks, got)
}

func TestPackUnpackEncrypted(t *testing.T) {
	tasks := sampleTasks()
	data, err := Pack(tasks, "hunter2")
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if strings.Contains(string(data), "Quarterly") {
		t.Fatal("sealed envelope leaks task names")
	}

	if _, err := Unpack(data, ""); !errors.Is(err, ErrPassword) {
		t.Fatalf("expected ErrPassword without password, got %v", err)
	}
	if _, err := Unpack(data, "wrong"); !errors.Is(err, ErrPassword) {
		t.Fatalf("expected ErrPassword with wrong password, got %v", err)
	}

	got, err := Unpack(data, "hunter2")
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	assertSameTasks(t, tasks, got)
}

func TestUnpackRejectsMismatch(t *testing.T) {
	data, err := Pack(sampleTasks(), "")
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	env, err := ReadEnvelope(data)
	if err != nil {
		t.Fatalf("read envelope: %v", err)
	}

	wrongSig := *env
	wrongSig.Signature = "(xsbxxxbxsx)"
	badPayload := *env
	badPayload.Payload = "bm90IG1zZ3BhY2s=" // "not msgpack"

	for name, e := range map[string]Envelope{"signature": wrongSig, "payload": badPayload} {
		t.Run(name, func(t *testing.T) {
			raw, err := yaml.Marshal(&e)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if _, err := Unpack(raw, ""); !errors.Is(err, ErrMismatch) {
				t.Fatalf("expected ErrMismatch, got %v", err)
			}
		})
	}
}

func TestReadEnvelopeRequiresID(t *testing.T) {
	if _, err := ReadEnvelope([]byte("id: nope\nsignature: x\n")); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestClientPushAndPull(t *testing.T) {
	tasks := sampleTasks()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/handoff":
			body, _ := io.ReadAll(r.Body)
			got, ok := codec.DecodeList(body)
			if !ok || r.Header.Get("Content-Type") != codec.ContentType {
				http.Error(w, "bad payload", http.StatusUnprocessableEntity)
				return
			}
			resp := HandoffResponse{}
			for _, task := range got {
				resp.Tasks = append(resp.Tasks, Difference{ID: task.ID(), Known: true, DifferentProperties: []string{}})
			}
			_ = json.NewEncoder(w).Encode(resp)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/tasks/7/variant":
			payload, _ := codec.EncodeList(tasks)
			w.Header().Set("Content-Type", codec.ContentType)
			_, _ = w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "token-1")
	ctx := context.Background()

	resp, err := client.Push(ctx, tasks)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(resp.Tasks) != 2 || resp.Tasks[0].ID != 7 || !resp.Tasks[1].Known {
		t.Fatalf("unexpected push response %+v", resp)
	}

	pulled, err := client.Pull(ctx, 7)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	assertSameTasks(t, tasks, pulled)

	if _, err := client.Pull(ctx, 99); err == nil {
		t.Fatal("expected error for unknown task")
	}
	if _, err := NewClient(srv.URL, "").Push(ctx, tasks); err == nil {
		t.Fatal("expected unauthorized push to fail")
	}
}

func TestClientPullStopsAtSizeLimit(t *testing.T) {
	payload, err := codec.EncodeList(sampleTasks())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", codec.ContentType)
		_, _ = w.Write(payload)
		_, _ = w.Write(make([]byte, maxPullSize))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "").Pull(context.Background(), 7); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

type lookup map[int64]*model.Task

func (l lookup) GetTask(_ context.Context, id int64) (*model.Task, error) {
	if t, ok := l[id]; ok {
		return t, nil
	}
	return nil, db.ErrNotFound
}

type brokenLookup struct{}

func (brokenLookup) GetTask(context.Context, int64) (*model.Task, error) {
	return nil, errors.New("disk on fire")
}

func TestCompare(t *testing.T) {
	tasks := sampleTasks()
	stored := lookup{7: tasks[0].Duplicate()}

	edited := tasks[0].Duplicate()
	edited.SetDescription("notes")
	fresh := tasks[1].Duplicate()
	fresh.DetachIdentity()

	diffs, err := Compare(context.Background(), stored, []*model.Task{edited, tasks[1], fresh})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(diffs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(diffs))
	}
	if !diffs[0].Known || len(diffs[0].DifferentProperties) != 1 || diffs[0].DifferentProperties[0] != model.FieldDescription {
		t.Fatalf("unexpected diff for edited task %+v", diffs[0])
	}
	if diffs[1].Known || diffs[2].Known || diffs[2].ID != 0 {
		t.Fatalf("unexpected unknown results %+v", diffs[1:])
	}

	if _, err := Compare(context.Background(), brokenLookup{}, tasks); err == nil {
		t.Fatal("expected lookup failure to propagate")
	}
}
