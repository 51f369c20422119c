package repository

import (
	"context"
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"supply_sandbox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newEventRepo(t *testing.T) (*EventSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewEventSQLite(db), mock
}

var eventColumns = []string{"id", "session_id", "user_id", "occurred_at", "type", "message", "meta"}

func TestBuildEventQuery(t *testing.T) {
	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.FixedZone("UTC+1", 3600))
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	const tail = " ORDER BY occurred_at ASC, rowid ASC LIMIT ?"

	cases := []struct {
		name     string
		f        EventFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "no filter",
			wantSQL:  selectEventsSQL + tail,
			wantArgs: []any{defaultEventLimit},
		},
		{
			name:     "all fields, fixed column order",
			f:        EventFilter{Type: " apply ", To: to, From: from, SessionID: "s9", UserID: 4, Limit: 20},
			wantSQL:  selectEventsSQL + " WHERE user_id = ? AND session_id = ? AND occurred_at >= ? AND occurred_at <= ? AND type = ?" + tail,
			wantArgs: []any{4, "s9", from.UTC(), to, "APPLY", 20},
		},
		{
			name:     "limit capped",
			f:        EventFilter{UserID: 1, Limit: math.MaxInt32},
			wantSQL:  selectEventsSQL + " WHERE user_id = ?" + tail,
			wantArgs: []any{1, maxEventLimit},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, args := buildEventQuery(tc.f)
			if q != tc.wantSQL {
				t.Fatalf("sql:\n got %s\nwant %s", q, tc.wantSQL)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("args: got %v want %v", args, tc.wantArgs)
			}
		})
	}
}

func TestEventSQLite_AppendFillsDefaults(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), "sess-1", 4, sqlmock.AnyArg(), "SAVE_CONFIGURATION", "saved", `{"scenario_count":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.SessionEvent{
		SessionID:   "sess-1",
		UserID:      4,
		Type:        "  save_configuration ",
		Description: "saved",
		Metadata:    map[string]any{"scenario_count": 1},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventSQLite_AppendWithoutMetadataStoresNull(t *testing.T) {
	repo, mock := newEventRepo(t)
	at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("e1", "sess-1", 4, at.UTC(), "BACK", "back", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Append(ctx(t), models.SessionEvent{EventID: "e1", SessionID: "sess-1", UserID: 4, OccurredAt: at, Type: "back", Description: "back"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventSQLite_AppendErrors(t *testing.T) {
	t.Run("unencodable metadata never reaches the db", func(t *testing.T) {
		repo, _ := newEventRepo(t)
		err := repo.Append(ctx(t), models.SessionEvent{EventID: "e1", Metadata: map[string]any{"f": func() {}}})
		if err == nil || !strings.Contains(err.Error(), "encode metadata") {
			t.Fatalf("want encode error, got %v", err)
		}
	})
	t.Run("exec failure is wrapped", func(t *testing.T) {
		repo, mock := newEventRepo(t)
		mock.ExpectExec("INSERT INTO session_events").WillReturnError(errors.New("disk full"))
		err := repo.Append(ctx(t), models.SessionEvent{EventID: "e1", Type: "apply"})
		if err == nil || !strings.Contains(err.Error(), "insert event e1") {
			t.Fatalf("want wrapped error, got %v", err)
		}
	})
}

func TestEventSQLite_ListDecodesMetadata(t *testing.T) {
	repo, mock := newEventRepo(t)
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL+" WHERE user_id = ? ORDER BY occurred_at ASC, rowid ASC LIMIT ?")).
		WithArgs(4, defaultEventLimit).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow("1", "s1", 4, at, "OPENED", "opened", `{"step_to":"SELECTION"}`).
			AddRow("2", "s1", 4, at, "APPLY", "applied", nil).
			AddRow("3", "s1", 4, at, "CLOSED", "closed", "not json"))

	got, err := repo.List(ctx(t), EventFilter{UserID: 4})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].EventID != "1" || got[2].EventID != "3" {
		t.Fatalf("rows=%+v", got)
	}
	if m, ok := got[0].Metadata.(map[string]any); !ok || m["step_to"] != "SELECTION" {
		t.Fatalf("metadata not decoded: %#v", got[0].Metadata)
	}
	if got[1].Metadata != nil {
		t.Fatalf("null meta should stay nil: %#v", got[1].Metadata)
	}
	if got[2].Metadata != "not json" {
		t.Fatalf("raw meta should be kept: %#v", got[2].Metadata)
	}
}

func TestEventSQLite_ListEmptyIsNotNil(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectQuery("SELECT id, session_id").WillReturnRows(sqlmock.NewRows(eventColumns))

	got, err := repo.List(ctx(t), EventFilter{})
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got=%#v err=%v", got, err)
	}
}

func TestEventSQLite_ListErrors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock := newEventRepo(t)
		mock.ExpectQuery("SELECT id, session_id").WillReturnError(errors.New("locked"))
		if _, err := repo.List(ctx(t), EventFilter{}); err == nil || !strings.Contains(err.Error(), "query events") {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("scan", func(t *testing.T) {
		repo, mock := newEventRepo(t)
		mock.ExpectQuery("SELECT id, session_id").
			WillReturnRows(sqlmock.NewRows(eventColumns).AddRow("x", "s1", 4, "yesterday", "OPENED", "m", nil))
		if _, err := repo.List(ctx(t), EventFilter{}); err == nil || !strings.Contains(err.Error(), "scan event") {
			t.Fatalf("got %v", err)
		}
	})
}
