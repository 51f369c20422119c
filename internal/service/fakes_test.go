package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"
)

// fakeEventRepo records appends and answers List with canned events.
type fakeEventRepo struct {
	mu sync.Mutex

	appended  []models.SessionEvent
	appendErr error

	gotFilter repository.EventFilter
	events    []models.SessionEvent
	err       error
	calls     int
}

func (f *fakeEventRepo) Append(_ context.Context, e models.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(_ context.Context, rf repository.EventFilter) ([]models.SessionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFilter = rf
	return f.events, f.err
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// fakeSessionRepo is an in-memory SessionRepo.
type fakeSessionRepo struct {
	mu sync.Mutex

	sessions map[string]models.Session
	saves    int
	saveErr  error
	loadErr  error

	gotBefore     time.Time
	deleteIdleErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]models.Session{}}
}

func (f *fakeSessionRepo) Save(_ context.Context, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Load(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return models.Session{}, f.loadErr
	}
	return f.sessions[id], nil
}

func (f *fakeSessionRepo) ListByUser(_ context.Context, userID int) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteIdle(_ context.Context, before time.Time) ([]repository.IdleSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotBefore = before
	if f.deleteIdleErr != nil {
		return nil, f.deleteIdleErr
	}
	var out []repository.IdleSession
	for id, s := range f.sessions {
		if s.UpdatedAt.Before(before) {
			out = append(out, repository.IdleSession{ID: id, UserID: s.UserID})
			delete(f.sessions, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSessionRepo) get(id string) (models.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

// fakeRunRepo is an in-memory RunRepo.
type fakeRunRepo struct {
	mu        sync.Mutex
	runs      []models.SandboxRun
	createErr error
	getErr    error
	deleteErr error
	deleted   []string
}

func (f *fakeRunRepo) Create(_ context.Context, r models.SandboxRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.runs = append(f.runs, r)
	return nil
}

func (f *fakeRunRepo) Get(_ context.Context, id string) (*models.SandboxRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, r := range f.runs {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	kept := f.runs[:0]
	for _, r := range f.runs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.runs = kept
	return nil
}

func (f *fakeRunRepo) ListByUser(_ context.Context, userID int) ([]models.SandboxRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SandboxRun
	for _, r := range f.runs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
