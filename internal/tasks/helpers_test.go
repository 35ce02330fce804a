package tasks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return fixedNow.AddDate(0, 0, -n)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

type removeCall struct {
	req       RemovalRequest
	dangerRun bool
}

// recordingRemover captures gate invocations without touching a service.
type recordingRemover struct {
	calls []removeCall
	err   error
}

func (r *recordingRemover) Delete(_ context.Context, req RemovalRequest, dangerRun bool) (models.RemovalStatus, error) {
	r.calls = append(r.calls, removeCall{req: req, dangerRun: dangerRun})
	if r.err != nil {
		return models.StatusFailed, r.err
	}
	if dangerRun {
		return models.StatusApplied, nil
	}
	return models.StatusSkipped, nil
}

// memoryAudit is an in-memory [AuditStore].
type memoryAudit struct {
	mu        sync.Mutex
	runs      map[string]*models.Run
	records   []*models.RemovalRecord
	createErr error
	startErr  error
}

func newMemoryAudit() *memoryAudit {
	return &memoryAudit{runs: map[string]*models.Run{}}
}

func (m *memoryAudit) Create(_ context.Context, rec *models.RemovalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memoryAudit) UpdateStatus(_ context.Context, id string, status models.RemovalStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			r.Status = status
			r.Error = errMsg
		}
	}
	return nil
}

func (m *memoryAudit) StartRun(_ context.Context, run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memoryAudit) FinishRun(_ context.Context, id string, finished time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[id]; ok {
		r.FinishedAt = &finished
	}
	return nil
}
