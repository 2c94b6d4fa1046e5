package model

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleTask(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask(Fields{
		FieldID:          int64(7),
		FieldName:        "Write report",
		FieldDone:        false,
		FieldProject:     int64(2),
		FieldSection:     int64(3),
		FieldPosition:    int32(4),
		FieldSuspended:   true,
		FieldParent:      int64(1),
		FieldDescription: "quarterly numbers",
		FieldDate:        int64(1760000000),
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	return task
}

func TestNewTaskDefaultsMissingFields(t *testing.T) {
	task, err := NewTask(Fields{FieldName: "Only a name"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Name() != "Only a name" {
		t.Fatalf("unexpected name %q", task.Name())
	}
	if task.ID() != 0 || task.Done() || task.Position() != 0 || task.Description() != "" || task.Date() != 0 {
		t.Fatalf("expected zero defaults, got %s", task)
	}
}

func TestNewTaskRejectsBadValues(t *testing.T) {
	cases := []Fields{
		{FieldName: 12},
		{FieldPosition: int64(1) << 40},
		{"colour": "red"},
		{FieldDone: "yes"},
	}
	for _, fields := range cases {
		if _, err := NewTask(fields); !errors.Is(err, ErrDecode) {
			t.Errorf("fields %v: expected ErrDecode, got %v", fields, err)
		}
	}
}

func TestDifferentPropertiesSelfIsEmpty(t *testing.T) {
	task := sampleTask(t)
	if diff := task.DifferentProperties(task); len(diff) != 0 {
		t.Fatalf("expected no differences, got %v", diff)
	}
	if diff := task.DifferentProperties(task.Duplicate()); len(diff) != 0 {
		t.Fatalf("expected duplicate to match, got %v", diff)
	}
}

func TestDifferentPropertiesKeepsDeclarationOrder(t *testing.T) {
	a := sampleTask(t)
	b := a.Duplicate()
	b.SetDate(0)
	b.SetName("Renamed")
	b.SetPosition(9)
	b.SetID(8)

	got := a.DifferentProperties(b)
	want := []string{FieldID, FieldName, FieldPosition, FieldDate}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDifferentPropertiesEveryField(t *testing.T) {
	a := sampleTask(t)
	b, err := NewTask(Fields{
		FieldID:          int64(70),
		FieldName:        "other",
		FieldDone:        true,
		FieldProject:     int64(20),
		FieldSection:     int64(30),
		FieldPosition:    int32(40),
		FieldSuspended:   false,
		FieldParent:      int64(10),
		FieldDescription: "",
		FieldDate:        int64(-5),
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if got := a.DifferentProperties(b); !reflect.DeepEqual(got, TaskFields) {
		t.Fatalf("expected all fields, got %v", got)
	}
}

func TestDuplicateKeepsIDUntilDetached(t *testing.T) {
	task := sampleTask(t)
	dup := task.Duplicate()
	if dup == task {
		t.Fatal("duplicate must be a new task")
	}
	if dup.ID() != task.ID() {
		t.Fatalf("expected id %d, got %d", task.ID(), dup.ID())
	}

	dup.DetachIdentity()
	if dup.ID() != 0 {
		t.Fatalf("expected detached id 0, got %d", dup.ID())
	}
	if task.ID() != 7 {
		t.Fatalf("detaching the duplicate changed the source id to %d", task.ID())
	}

	dup.SetName("changed")
	if task.Name() != "Write report" {
		t.Fatalf("duplicate shares state with source")
	}
}

func TestOnChangeNotifiesOnlyRealChanges(t *testing.T) {
	task := sampleTask(t)
	var changed []string
	handle := task.OnChange(func(_ *Task, field string) {
		changed = append(changed, field)
	})

	task.SetName("Write report")
	task.SetName("Write summary")
	task.SetDone(true)
	if !reflect.DeepEqual(changed, []string{FieldName, FieldDone}) {
		t.Fatalf("unexpected notifications %v", changed)
	}

	if dup := task.Duplicate(); dup != nil {
		dup.SetName("copy")
	}
	if len(changed) != 2 {
		t.Fatalf("duplicate must not carry observers, got %v", changed)
	}

	task.RemoveOnChange(handle)
	task.SetName("silent")
	if len(changed) != 2 {
		t.Fatalf("expected no notification after removal, got %v", changed)
	}
}

func TestSetFieldsIsAllOrNothing(t *testing.T) {
	task := sampleTask(t)
	err := task.SetFields(Fields{FieldName: "new", FieldDate: "tomorrow"})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if task.Name() != "Write report" {
		t.Fatalf("partial write applied: %q", task.Name())
	}
}

func TestSetFieldsReportsFirstBadField(t *testing.T) {
	fields := Fields{
		FieldDate: "tomorrow", FieldName: 3, FieldParent: "x", "zeta": 1, "alpha": 2,
	}
	for i := 0; i < 20; i++ {
		err := sampleTask(t).SetFields(fields)
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
		if decodeErr.Field != FieldName {
			t.Fatalf("expected %q, got %q", FieldName, decodeErr.Field)
		}
	}

	err := sampleTask(t).SetFields(Fields{FieldName: "ok", "zeta": 1, "alpha": 2})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Field != "alpha" {
		t.Fatalf("expected unknown field alpha, got %v", err)
	}
}

func TestTaskFromRow(t *testing.T) {
	row := Row{
		"id": int64(7), "name": []byte("Write report"), "done": int64(0), "project": int64(2),
		"section": int64(3), "position": int64(4), "suspended": int64(1), "parent": int64(1),
		"description": "quarterly numbers", "date": int64(1760000000), "extra": "ignored",
	}
	task, err := TaskFromRow(row)
	if err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if diff := task.DifferentProperties(sampleTask(t)); len(diff) != 0 {
		t.Fatalf("unexpected differences %v", diff)
	}
}

func TestTaskFromRowErrors(t *testing.T) {
	base := func() Row {
		return Row{
			"id": int64(1), "name": "n", "done": false, "project": int64(1), "section": int64(0),
			"position": int64(0), "suspended": false, "parent": int64(0), "description": "", "date": int64(0),
		}
	}

	tests := []struct {
		name  string
		edit  func(Row)
		field string
	}{
		{"missing column", func(r Row) { delete(r, "parent") }, "parent"},
		{"wrong type", func(r Row) { r["name"] = int64(3) }, "name"},
		{"position overflow", func(r Row) { r["position"] = int64(1) << 33 }, "position"},
		{"bad boolean", func(r Row) { r["done"] = int64(2) }, "done"},
		{"float date", func(r Row) { r["date"] = 1.5 }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base()
			tt.edit(row)
			task, err := TaskFromRow(row)
			if task != nil {
				t.Fatalf("expected no task, got %s", task)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if decodeErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, decodeErr.Field)
			}
		})
	}
}

func TestTaskFromValues(t *testing.T) {
	values := sampleTask(t).Values()
	task, err := TaskFromValues(values)
	if err != nil {
		t.Fatalf("decode values: %v", err)
	}
	if !task.Equal(sampleTask(t)) {
		t.Fatalf("round trip mismatch: %s", task)
	}

	if _, err := TaskFromValues(values[:9]); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for 9 values, got %v", err)
	}
}

func TestDateTime(t *testing.T) {
	task := sampleTask(t)
	got, ok := task.DateTime(time.UTC)
	if !ok || got.Unix() != 1760000000 {
		t.Fatalf("unexpected date %v %v", got, ok)
	}
	task.SetDate(0)
	if _, ok := task.DateTime(time.UTC); ok {
		t.Fatal("expected no date for sentinel 0")
	}
}

func TestStringListsEveryField(t *testing.T) {
	s := sampleTask(t).String()
	for _, f := range TaskFields {
		if !strings.Contains(s, f+": ") {
			t.Errorf("expected %q in %s", f, s)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{0: "0:00:00", 59: "0:00:59", 3661: "1:01:01", 90000: "25:00:00", -4: "0:00:00"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
