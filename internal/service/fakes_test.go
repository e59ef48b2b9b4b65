package service

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/emailbuilder/emailbuilder/internal/email"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

type memTemplates struct {
	mu   sync.Mutex
	rows map[string]model.EmailTemplate
}

func newMemTemplates() *memTemplates {
	return &memTemplates{rows: map[string]model.EmailTemplate{}}
}

func (m *memTemplates) Create(ctx context.Context, t *model.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Key == t.Key {
			return repository.ErrDuplicate
		}
	}
	m.rows[t.ID] = *t
	return nil
}

func (m *memTemplates) GetByID(ctx context.Context, id string) (*model.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (m *memTemplates) GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Key == key {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTemplates) List(ctx context.Context) ([]model.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EmailTemplate, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memTemplates) Update(ctx context.Context, t *model.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, row := range m.rows {
		if id != t.ID && row.Key == t.Key {
			return repository.ErrDuplicate
		}
	}
	m.rows[t.ID] = *t
	return nil
}

func (m *memTemplates) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memGlobals struct {
	rows []model.GlobalEmailTemplate
}

func (m *memGlobals) Create(ctx context.Context, g *model.GlobalEmailTemplate) error {
	m.rows = append(m.rows, *g)
	return nil
}

func (m *memGlobals) GetByID(ctx context.Context, id string) (*model.GlobalEmailTemplate, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memGlobals) List(ctx context.Context) ([]model.GlobalEmailTemplate, error) {
	return append([]model.GlobalEmailTemplate(nil), m.rows...), nil
}

func (m *memGlobals) Update(ctx context.Context, g *model.GlobalEmailTemplate) error {
	for i := range m.rows {
		if m.rows[i].ID == g.ID {
			m.rows[i] = *g
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memGlobals) Delete(ctx context.Context, id string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, key string) (*model.EmailTemplate, error) {
	return nil, nil
}

func (c *recordingCache) Set(ctx context.Context, t *model.EmailTemplate) error { return nil }

func (c *recordingCache) Invalidate(ctx context.Context, key string) error {
	c.invalidated = append(c.invalidated, key)
	return nil
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) EmailForUser(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueSend(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (string, error) {
	args := m.Called(ctx, recipient, key, data)
	return args.String(0), args.Error(1)
}

type memAudit struct {
	entries []model.AuditLog
	err     error
}

func (m *memAudit) Create(ctx context.Context, log *model.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *log)
	return nil
}

func (m *memAudit) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
