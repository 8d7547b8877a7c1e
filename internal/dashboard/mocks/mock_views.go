// Package mocks provides test doubles for the dashboard interfaces.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/geo-dashboard/internal/model"
)

// MockTableView is a mock type for the TableView interface.
type MockTableView struct {
	mock.Mock
}

// BringIntoView provides a mock function with given fields: id
func (_m *MockTableView) BringIntoView(id string) {
	_m.Called(id)
}

// NewMockTableView creates a new instance of MockTableView. It also registers
// a cleanup function to assert the mocks expectations.
func NewMockTableView(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTableView {
	m := &MockTableView{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockMapView is a mock type for the MapView interface.
type MockMapView struct {
	mock.Mock
}

// CenterOn provides a mock function with given fields: rec
func (_m *MockMapView) CenterOn(rec model.Record) {
	_m.Called(rec)
}

// NewMockMapView creates a new instance of MockMapView. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockMapView(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMapView {
	m := &MockMapView{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockRecordLoader is a mock type for the RecordLoader interface.
type MockRecordLoader struct {
	mock.Mock
}

// Load provides a mock function with given fields: ctx
func (_m *MockRecordLoader) Load(ctx context.Context) ([]model.Record, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Load")
	}

	var r0 []model.Record
	if rf, ok := ret.Get(0).(func(context.Context) []model.Record); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Record)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockRecordLoader creates a new instance of MockRecordLoader. It also
// registers a cleanup function to assert the mocks expectations.
func NewMockRecordLoader(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecordLoader {
	m := &MockRecordLoader{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
