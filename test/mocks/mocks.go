// Package mocks provides testify mocks for the checker's collaborators.
package mocks

import (
	"context"
	"time"

	"github.com/Houeta/stock-flow/internal/catalog"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/internal/repository/sqlite"
	"github.com/stretchr/testify/mock"
)

// Fetcher is a mock implementation of catalog.Fetcher.
type Fetcher struct {
	mock.Mock
}

var _ catalog.Fetcher = (*Fetcher)(nil)

func (m *Fetcher) FetchCollection(ctx context.Context, collectionID int) (*catalog.Collection, error) {
	args := m.Called(ctx, collectionID)
	if collection := args.Get(0); collection != nil {
		return collection.(*catalog.Collection), args.Error(1)
	}
	return nil, args.Error(1)
}

// StateRepository is a mock implementation of sqlite.StateRepository.
type StateRepository struct {
	mock.Mock
}

var _ sqlite.StateRepository = (*StateRepository)(nil)

func (m *StateRepository) GetState(ctx context.Context) (*models.PersistedState, error) {
	args := m.Called(ctx)
	if state := args.Get(0); state != nil {
		return state.(*models.PersistedState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StateRepository) UpdateState(ctx context.Context, state *models.PersistedState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *StateRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Notifier is a mock implementation of notifier.Interface.
type Notifier struct {
	mock.Mock
}

var _ notifier.Interface = (*Notifier)(nil)

func (m *Notifier) Notify(
	ctx context.Context,
	collection string,
	checkedAt time.Time,
	products []models.ProductAvailability,
) error {
	args := m.Called(ctx, collection, checkedAt, products)
	return args.Error(0)
}
