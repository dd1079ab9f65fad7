package complaint_test

import (
	"context"
	"ouvidoria/backend/internal/models"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Append(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) Get(ctx context.Context, protocol string) (*models.Complaint, error) {
	args := m.Called(ctx, protocol)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockStorage) FindByNationalID(ctx context.Context, id string) ([]models.Complaint, error) {
	args := m.Called(ctx, id)
	cs, _ := args.Get(0).([]models.Complaint)
	return cs, args.Error(1)
}

func (m *MockStorage) FindByEnrollmentID(ctx context.Context, id string) ([]models.Complaint, error) {
	args := m.Called(ctx, id)
	cs, _ := args.Get(0).([]models.Complaint)
	return cs, args.Error(1)
}

func (m *MockStorage) UpdateResponse(ctx context.Context, protocol, response string, at time.Time) error {
	args := m.Called(ctx, protocol, response, at)
	return args.Error(0)
}

func (m *MockStorage) List(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]models.Complaint)
	return cs, args.Error(1)
}

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) IsEligible(ctx context.Context, enrollmentID string) (bool, error) {
	args := m.Called(ctx, enrollmentID)
	return args.Bool(0), args.Error(1)
}

// recordingDispatcher captures dispatched notifications synchronously.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls [][2]string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, protocol, category string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, [2]string{protocol, category})
}

func (d *recordingDispatcher) Calls() [][2]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][2]string(nil), d.calls...)
}

// scriptedAllocator hands out a fixed list of protocols, then repeats the last.
type scriptedAllocator struct {
	mu        sync.Mutex
	protocols []string
	err       error
}

func (a *scriptedAllocator) Allocate() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	p := a.protocols[0]
	if len(a.protocols) > 1 {
		a.protocols = a.protocols[1:]
	}
	return p, nil
}
