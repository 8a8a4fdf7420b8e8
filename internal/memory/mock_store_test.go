package memory

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of Store.
type MockStore struct{ mock.Mock }

func (m *MockStore) GetAll(ctx context.Context, userID string) (*ListResult, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*ListResult)
	return res, args.Error(1)
}

func (m *MockStore) Add(ctx context.Context, in AddInput) (*AddResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*AddResult)
	return res, args.Error(1)
}

func (m *MockStore) DeleteAll(ctx context.Context, userID string) (*Ack, error) {
	args := m.Called(ctx, userID)
	ack, _ := args.Get(0).(*Ack)
	return ack, args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, memoryID string) (*Record, error) {
	args := m.Called(ctx, memoryID)
	rec, _ := args.Get(0).(*Record)
	return rec, args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, memoryID, text string) (*Record, error) {
	args := m.Called(ctx, memoryID, text)
	rec, _ := args.Get(0).(*Record)
	return rec, args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, memoryID string) (*Ack, error) {
	args := m.Called(ctx, memoryID)
	ack, _ := args.Get(0).(*Ack)
	return ack, args.Error(1)
}

func (m *MockStore) Search(ctx context.Context, query string, filter SearchFilter) (*ListResult, error) {
	args := m.Called(ctx, query, filter)
	res, _ := args.Get(0).(*ListResult)
	return res, args.Error(1)
}

func (m *MockStore) History(ctx context.Context, memoryID string) ([]HistoryEntry, error) {
	args := m.Called(ctx, memoryID)
	entries, _ := args.Get(0).([]HistoryEntry)
	return entries, args.Error(1)
}
