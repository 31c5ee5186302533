package relay

import "github.com/stretchr/testify/mock"

// MockRunner is a testify mock of Runner for unit tests.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(name string, args ...string) (Result, error) {
	callArgs := make([]interface{}, 0, len(args)+1)
	callArgs = append(callArgs, name)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	return ret.Get(0).(Result), ret.Error(1)
}

func (m *MockRunner) RunUnchecked(name string, args ...string) (Result, error) {
	callArgs := make([]interface{}, 0, len(args)+1)
	callArgs = append(callArgs, name)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	return ret.Get(0).(Result), ret.Error(1)
}

func (m *MockRunner) Output(name string, args ...string) (string, error) {
	callArgs := make([]interface{}, 0, len(args)+1)
	callArgs = append(callArgs, name)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	return ret.String(0), ret.Error(1)
}

func (m *MockRunner) OutputWithInput(input, name string, args ...string) (string, error) {
	callArgs := make([]interface{}, 0, len(args)+2)
	callArgs = append(callArgs, input, name)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	return ret.String(0), ret.Error(1)
}
