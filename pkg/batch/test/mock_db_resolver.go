package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	dbadapter "github.com/tigerroll/sheetload/pkg/batch/adapter/database"
)

// MockDBConnectionResolver is a mock implementation of database.DBConnectionResolver.
type MockDBConnectionResolver struct {
	mock.Mock
}

// ResolveDBConnection mocks the ResolveDBConnection method.
func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dbadapter.DBConnection), args.Error(1)
}

// testSingleConnectionResolver always returns the same connection, whatever the name.
type testSingleConnectionResolver struct {
	conn dbadapter.DBConnection
}

func (r *testSingleConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	return r.conn, nil
}

// NewTestSingleConnectionResolver creates a resolver that always returns conn.
func NewTestSingleConnectionResolver(conn dbadapter.DBConnection) dbadapter.DBConnectionResolver {
	return &testSingleConnectionResolver{conn: conn}
}
