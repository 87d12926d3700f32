// Package mocks provides test doubles for the eventregistry client.
package mocks

import (
	"context"

	eventregistry "github.com/sells-group/coverage-cli/pkg/eventregistry"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// NER provides a mock function with given fields: ctx, text
func (_m *MockClient) NER(ctx context.Context, text string) ([]eventregistry.Entity, error) {
	ret := _m.Called(ctx, text)

	if len(ret) == 0 {
		panic("no return value specified for NER")
	}

	var r0 []eventregistry.Entity
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]eventregistry.Entity, error)); ok {
		return rf(ctx, text)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []eventregistry.Entity); ok {
		r0 = rf(ctx, text)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]eventregistry.Entity)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, text)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
