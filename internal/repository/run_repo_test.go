package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"supply_sandbox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRunRepo(t *testing.T) (*RunSQLite, sqlmock.Sqlmock) {
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
	return NewRunSQLite(db), mock
}

var testScenarios = []models.ConfiguredScenario{
	{ID: "a", Facility: "Phoenix, AZ", Category: "Production & Manufacturing", Variable: "Capacity Adjustment", Parameters: map[string]float64{"changePercent": 25}},
}

// encoded as Create will write it; json.Marshal escapes '&' as \u0026
func scenariosJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(testScenarios)
	if err != nil {
		t.Fatalf("marshal scenarios: %v", err)
	}
	return string(b)
}

func TestRunSQLite_Create(t *testing.T) {
	repo, mock := newRunRepo(t)
	created := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(insertRunSQL)).
		WithArgs("run-1", 5, "sess-1", scenariosJSON(t), created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(ctx(t), models.SandboxRun{
		ID:        "run-1",
		UserID:    5,
		SessionID: "sess-1",
		Scenarios: testScenarios,
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestRunSQLite_Get(t *testing.T) {
	cols := []string{"id", "user_id", "session_id", "scenarios", "created_at"}
	created := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	doc := scenariosJSON(t)

	tests := []struct {
		name    string
		expect  func(m sqlmock.Sqlmock)
		wantNil bool
		wantErr bool
	}{
		{
			name: "found",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectRunSQL)).
					WithArgs("run-1").
					WillReturnRows(sqlmock.NewRows(cols).AddRow("run-1", 5, "sess-1", doc, created))
			},
		},
		{
			name: "not found",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectRunSQL)).
					WithArgs("run-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantNil: true,
		},
		{
			name: "db error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectRunSQL)).
					WithArgs("run-1").
					WillReturnError(errors.New("boom"))
			},
			wantNil: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRunRepo(t)
			tt.expect(mock)

			run, err := repo.Get(ctx(t), "run-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if (run == nil) != tt.wantNil {
				t.Fatalf("run=%+v, wantNil=%v", run, tt.wantNil)
			}
			if run != nil {
				if len(run.Scenarios) != 1 || run.Scenarios[0].Parameters["changePercent"] != 25 {
					t.Fatalf("scenarios not decoded: %+v", run.Scenarios)
				}
				if !run.CreatedAt.Equal(created) {
					t.Fatalf("created_at=%v", run.CreatedAt)
				}
			}
		})
	}
}

func TestRunSQLite_Delete(t *testing.T) {
	repo, mock := newRunRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(deleteRunSQL)).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteRunSQL)).
		WithArgs("run-2").
		WillReturnError(errors.New("locked"))

	if err := repo.Delete(ctx(t), "run-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx(t), "run-2"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunSQLite_ListByUser(t *testing.T) {
	repo, mock := newRunRepo(t)
	cols := []string{"id", "user_id", "session_id", "scenarios", "created_at"}
	now := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectRunsByUserSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("run-2", 5, "sess-2", "[]", now.Add(time.Hour)).
			AddRow("run-1", 5, "sess-1", scenariosJSON(t), now))

	runs, err := repo.ListByUser(ctx(t), 5)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || len(runs[0].Scenarios) != 0 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}
