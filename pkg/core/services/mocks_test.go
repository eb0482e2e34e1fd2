package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

var (
	// monday is 2025-03-03; every fixture session is in that week
	monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	now    = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testConfig() *config.Config {
	return &config.Config{DatabaseURL: "postgres://localhost/test"}
}

func session(id, unitID, moduleID string, day, startHour, hours int) model.Session {
	start := monday.AddDate(0, 0, day).Add(time.Duration(startHour) * time.Hour)
	return model.Session{
		ID:                id,
		UnitID:            unitID,
		ModuleID:          moduleID,
		Start:             start,
		End:               start.Add(time.Duration(hours) * time.Hour),
		LeadStaffRequired: 1,
	}
}

func record(id, sessionID, facilitatorID string) db.AssignmentRecord {
	return db.AssignmentRecord{Assignment: model.Assignment{
		ID:            id,
		SessionID:     sessionID,
		FacilitatorID: facilitatorID,
		Role:          model.RoleLead,
	}}
}

// newMockStore has two facilitators proficient in lab1, one of them also in
// lab2, and two lab1 sessions in unit fit1045 on Monday and Tuesday morning
func newMockStore() *mockStore {
	return &mockStore{
		facilitators: []model.Facilitator{
			{
				ID:     "fac-a",
				Name:   "Alice",
				Email:  "alice@example.com",
				Skills: map[string]model.SkillLevel{"lab1": model.SkillProficient, "lab2": model.SkillProficient},
			},
			{
				ID:     "fac-b",
				Name:   "Bob",
				Email:  "bob@example.com",
				Skills: map[string]model.SkillLevel{"lab1": model.SkillProficient},
			},
		},
		modules: []model.Module{
			{ID: "lab1", UnitID: "fit1045", Name: "Lab 1"},
			{ID: "lab2", UnitID: "fit2004", Name: "Lab 2"},
		},
		sessions: []model.Session{
			session("s1", "fit1045", "lab1", 0, 9, 2),
			session("s2", "fit1045", "lab1", 1, 9, 2),
		},
	}
}

// mockStore is an in-memory store for every service. InTx restores assignments
// and swap requests if fn fails.
type mockStore struct {
	mu sync.Mutex

	facilitators []model.Facilitator
	modules      []model.Module
	sessions     []model.Session
	assignments  []db.AssignmentRecord
	swapRequests []model.SwapRequest

	insertedRuns []db.AllocationRun

	getFacilitatorsErr error
	insertRunErr       error
	commits            int
}

func (m *mockStore) GetFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	if m.getFacilitatorsErr != nil {
		return nil, m.getFacilitatorsErr
	}
	return m.facilitators, nil
}

func (m *mockStore) GetModules(ctx context.Context) ([]model.Module, error) {
	return m.modules, nil
}

func (m *mockStore) GetSessions(ctx context.Context, filter db.SessionFilter) ([]model.Session, error) {
	result := []model.Session{}
	for _, s := range m.sessions {
		if filter.Matches(s) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockStore) GetAssignments(ctx context.Context) ([]db.AssignmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.assignments), nil
}

func (m *mockStore) InsertAllocationRun(ctx context.Context, run db.AllocationRun, assignments []db.AssignmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertRunErr != nil {
		return m.insertRunErr
	}
	m.insertedRuns = append(m.insertedRuns, run)
	m.assignments = append(m.assignments, assignments...)
	return nil
}

func (m *mockStore) GetSwapRequests(ctx context.Context) ([]model.SwapRequest, error) {
	return m.swapRequests, nil
}

func (m *mockStore) InTx(ctx context.Context, fn func(tx db.SwapTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	savedAssignments := slices.Clone(m.assignments)
	savedRequests := slices.Clone(m.swapRequests)
	if err := fn(&mockTx{store: m}); err != nil {
		m.assignments = savedAssignments
		m.swapRequests = savedRequests
		return err
	}
	m.commits++
	return nil
}

// assignment returns the stored assignment with id
func (m *mockStore) assignment(id string) model.Assignment {
	for _, r := range m.assignments {
		if r.ID == id {
			return r.Assignment
		}
	}
	return model.Assignment{}
}

// mockTx works directly on the store; the store lock is held by InTx
type mockTx struct {
	store *mockStore
}

func (t *mockTx) LockSwapRequest(ctx context.Context, id string) (model.SwapRequest, error) {
	for _, r := range t.store.swapRequests {
		if r.ID == id {
			return r, nil
		}
	}
	return model.SwapRequest{}, fmt.Errorf("swap request %s: %w", id, db.ErrNotFound)
}

func (t *mockTx) LockAssignments(ctx context.Context, ids ...string) ([]model.Assignment, error) {
	result := make([]model.Assignment, 0, len(ids))
	for _, id := range ids {
		a := t.store.assignment(id)
		if a.ID == "" {
			return nil, fmt.Errorf("assignment %s: %w", id, db.ErrNotFound)
		}
		result = append(result, a)
	}
	return result, nil
}

func (t *mockTx) GetSwapRequestsForAssignments(ctx context.Context, assignmentIDs ...string) ([]model.SwapRequest, error) {
	var result []model.SwapRequest
	for _, r := range t.store.swapRequests {
		for _, id := range assignmentIDs {
			if r.References(id) {
				result = append(result, r)
				break
			}
		}
	}
	return result, nil
}

func (t *mockTx) GetAssignmentsForFacilitators(ctx context.Context, facilitatorIDs ...string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, r := range t.store.assignments {
		if slices.Contains(facilitatorIDs, r.FacilitatorID) {
			result = append(result, r.Assignment)
		}
	}
	return result, nil
}

func (t *mockTx) GetSessionsByID(ctx context.Context, ids ...string) ([]model.Session, error) {
	var result []model.Session
	for _, s := range t.store.sessions {
		if slices.Contains(ids, s.ID) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (t *mockTx) GetFacilitatorsByID(ctx context.Context, ids ...string) ([]model.Facilitator, error) {
	var result []model.Facilitator
	for _, f := range t.store.facilitators {
		if slices.Contains(ids, f.ID) {
			result = append(result, f)
		}
	}
	return result, nil
}

func (t *mockTx) InsertSwapRequest(ctx context.Context, request model.SwapRequest) error {
	t.store.swapRequests = append(t.store.swapRequests, request)
	return nil
}

func (t *mockTx) UpdateSwapRequest(ctx context.Context, request model.SwapRequest) error {
	for i, r := range t.store.swapRequests {
		if r.ID == request.ID {
			t.store.swapRequests[i] = request
			return nil
		}
	}
	return fmt.Errorf("swap request %s: %w", request.ID, db.ErrNotFound)
}

func (t *mockTx) UpdateAssignments(ctx context.Context, assignments []model.Assignment) error {
	for _, a := range assignments {
		found := false
		for i, r := range t.store.assignments {
			if r.ID == a.ID {
				t.store.assignments[i].Assignment = a
				found = true
			}
		}
		if !found {
			return fmt.Errorf("assignment %s: %w", a.ID, db.ErrNotFound)
		}
	}
	return nil
}

// sentEmail is one email captured by mockNotifier
type sentEmail struct {
	to      string
	subject string
	body    string
}

// mockNotifier implements Notifier for testing
type mockNotifier struct {
	sent    []sentEmail
	failFor map[string]error
}

func (m *mockNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

// mockPublisher implements ReportPublisher for testing
type mockPublisher struct {
	spreadsheetID string
	tabTitle      string
	rows          [][]string
	err           error
}

func (m *mockPublisher) PublishReport(spreadsheetID, tabTitle string, rows [][]string) error {
	if m.err != nil {
		return m.err
	}
	m.spreadsheetID = spreadsheetID
	m.tabTitle = tabTitle
	m.rows = rows
	return nil
}
