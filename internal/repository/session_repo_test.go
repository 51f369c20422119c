package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"supply_sandbox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

type argMatcher func(v driver.Value) bool

func (f argMatcher) Match(v driver.Value) bool { return f(v) }

func newSessionRepo(t *testing.T) (*SessionSQLite, sqlmock.Sqlmock) {
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
	return NewSessionSQLite(db), mock
}

func sampleSession() models.Session {
	return models.Session{
		ID:       "sess-1",
		UserID:   3,
		Open:     true,
		Step:     models.StepSelection,
		Facility: "Phoenix, AZ",
		Category: "Production & Manufacturing",
		Variable: "Select...",
		Scenarios: []models.ConfiguredScenario{
			{ID: "a", Facility: "Phoenix, AZ", Category: "Production & Manufacturing", Variable: "Capacity Adjustment", Parameters: map[string]float64{"changePercent": 25}},
		},
		Shutdown: models.ShutdownForm{Days: 30, Entries: []models.ShutdownConfig{}},
		Demand:   models.DemandForm{Percent: 50, Entries: []models.MonthAllocation{}},
	}
}

func TestSessionSQLite_Save_SetsUTCTimestampAndMarshalsState(t *testing.T) {
	repo, mock := newSessionRepo(t)

	s := sampleSession()
	isRecentUTC := argMatcher(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		return time.Since(tm) < 5*time.Second
	})
	isSessionDoc := argMatcher(func(v driver.Value) bool {
		str, ok := v.(string)
		if !ok {
			return false
		}
		var got models.Session
		if err := json.Unmarshal([]byte(str), &got); err != nil {
			return false
		}
		return got.ID == "sess-1" && len(got.Scenarios) == 1 && got.Scenarios[0].Parameters["changePercent"] == 25
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wizard_sessions")).
		WithArgs("sess-1", 3, isSessionDoc, isRecentUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(ctx(t), s); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestSessionSQLite_Save_ExecError(t *testing.T) {
	repo, mock := newSessionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wizard_sessions")).
		WillReturnError(errors.New("disk full"))

	if err := repo.Save(ctx(t), sampleSession()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSessionSQLite_Load(t *testing.T) {
	doc, _ := json.Marshal(sampleSession())

	tests := []struct {
		name    string
		expect  func(m sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "found",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectSessionSQL)).
					WithArgs("sess-1").
					WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(string(doc)))
			},
			wantID: "sess-1",
		},
		{
			name: "missing returns zero value",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectSessionSQL)).
					WithArgs("sess-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantID: "",
		},
		{
			name: "corrupt document",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectSessionSQL)).
					WithArgs("sess-1").
					WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("{not json"))
			},
			wantErr: true,
		},
		{
			name: "query error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectSessionSQL)).
					WithArgs("sess-1").
					WillReturnError(errors.New("locked"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newSessionRepo(t)
			tt.expect(mock)

			got, err := repo.Load(ctx(t), "sess-1")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Fatalf("id: want %q, got %q", tt.wantID, got.ID)
			}
		})
	}
}

func TestSessionSQLite_ListByUser(t *testing.T) {
	repo, mock := newSessionRepo(t)

	a, b := sampleSession(), sampleSession()
	b.ID = "sess-2"
	docA, _ := json.Marshal(a)
	docB, _ := json.Marshal(b)

	mock.ExpectQuery(regexp.QuoteMeta(selectSessionsByUserSQL)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(string(docB)).AddRow(string(docA)))

	got, err := repo.ListByUser(ctx(t), 3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != "sess-2" || got[1].ID != "sess-1" {
		t.Fatalf("unexpected sessions: %+v", got)
	}
}

func TestSessionSQLite_DeleteIdle(t *testing.T) {
	repo, mock := newSessionRepo(t)
	cutoff := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectIdleSessionsSQL)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow("old-1", 3).AddRow("old-2", 4))
	mock.ExpectExec(regexp.QuoteMeta(deleteIdleSessionsSQL)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ids, err := repo.DeleteIdle(ctx(t), cutoff)
	if err != nil {
		t.Fatalf("DeleteIdle: %v", err)
	}
	if len(ids) != 2 || ids[0] != (IdleSession{ID: "old-1", UserID: 3}) || ids[1].ID != "old-2" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestSessionSQLite_DeleteIdle_NoneSkipsDelete(t *testing.T) {
	repo, mock := newSessionRepo(t)
	cutoff := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectIdleSessionsSQL)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	ids, err := repo.DeleteIdle(ctx(t), cutoff)
	if err != nil || ids != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", ids, err)
	}
}
