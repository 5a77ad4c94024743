package horizonredux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigMiddlewareValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		id           string
		dataSource   DataSource
		config       map[ActionType]ConfigHandler
		expectedKind ErrorKind
	}{
		{
			id:           "Should fail without a data source.",
			dataSource:   nil,
			config:       map[ActionType]ConfigHandler{},
			expectedKind: KindMissingDataSource,
		},
		{
			id:           "Should fail without config.",
			dataSource:   newFakeDataSource(),
			config:       nil,
			expectedKind: KindMissingConfig,
		},
		{
			id:           "Should fail with a nil handler.",
			dataSource:   newFakeDataSource(),
			config:       map[ActionType]ConfigHandler{"ADD_ITEM": nil},
			expectedKind: KindInvalidHandler,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.id, func(t *testing.T) {
			t.Parallel()

			middleware, err := NewConfigMiddleware(testCase.dataSource, testCase.config)

			assert.Nil(t, middleware)
			assert.True(t, IsErrorKind(testCase.expectedKind, err), err)
		})
	}
}

func TestConfigMiddleware(t *testing.T) {
	t.Parallel()

	dataSource := newFakeDataSource()
	handled := make([]Action, 0)

	middleware, err := NewConfigMiddleware(dataSource, map[ActionType]ConfigHandler{
		"ADD_ITEM": func(dataSource DataSource, action Action, dispatch Dispatch) {
			handled = append(handled, action)
			dataSource.Query("items", action.Payload)
			dispatch(NewAction("ADD_ITEM_SENT", action.Payload))
		},
	})
	require.NoError(t, err)

	store := newFakeStore(middleware)

	assert.Nil(t, store.Dispatch(NewAction("ADD_ITEM", "x")))
	store.Dispatch(NewAction("OTHER", nil))

	require.Len(t, handled, 1)
	assert.Equal(t, "x", handled[0].Payload)
	assert.Equal(t, 1, dataSource.queryCount())
	assert.Equal(t, []ActionType{"ADD_ITEM_SENT", "OTHER"}, store.types(), "handled actions are not forwarded")
}
