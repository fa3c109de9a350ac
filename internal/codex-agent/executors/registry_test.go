package executors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExecutor_RegisteredTypes(t *testing.T) {
	// The init() function in registry.go should have registered these.
	testCases := []struct {
		name         string
		executorType string
		expectedType interface{}
		expectError  bool
	}{
		{
			name:         "BrowserExecutor",
			executorType: ExecutorTypeBrowser,
			expectedType: &BrowserExecutor{},
			expectError:  false,
		},
		{
			name:         "DryRunExecutor",
			executorType: ExecutorTypeDryRun,
			expectedType: &DryRunExecutor{},
			expectError:  false,
		},
		{
			name:         "UnknownExecutor",
			executorType: "unknown-type-for-testing",
			expectedType: nil,
			expectError:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			executor, err := GetExecutor(tc.executorType)

			if tc.expectError {
				assert.Error(t, err, fmt.Sprintf("Expected an error for executor type '%s'", tc.executorType))
				assert.Nil(t, executor, "Executor should be nil on error")
				expectedErrMsg := fmt.Sprintf("no executor registered for type: %s", tc.executorType)
				assert.EqualError(t, err, expectedErrMsg, "Error message mismatch")
			} else {
				assert.NoError(t, err, fmt.Sprintf("Did not expect an error for executor type '%s'", tc.executorType))
				assert.NotNil(t, executor, "Expected a non-nil executor")
				assert.IsType(t, tc.expectedType, executor, fmt.Sprintf("Executor type mismatch for '%s'", tc.executorType))
			}
		})
	}
}

func TestExecutorRegistry_InitialState(t *testing.T) {
	assert.NotNil(t, Registry, "Registry should be initialized")

	_, browserExists := Registry[ExecutorTypeBrowser]
	assert.True(t, browserExists, fmt.Sprintf("Executor type '%s' should be registered", ExecutorTypeBrowser))

	_, dryRunExists := Registry[ExecutorTypeDryRun]
	assert.True(t, dryRunExists, fmt.Sprintf("Executor type '%s' should be registered", ExecutorTypeDryRun))

	if browserExists {
		assert.IsType(t, &BrowserExecutor{}, Registry[ExecutorTypeBrowser], "Registered BrowserExecutor instance type mismatch")
	}
	if dryRunExists {
		assert.IsType(t, &DryRunExecutor{}, Registry[ExecutorTypeDryRun], "Registered DryRunExecutor instance type mismatch")
	}
}
