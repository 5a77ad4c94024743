package horizonredux

import (
	"testing"

	"github.com/ahmedkamals/horizonredux/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "takeEvery", Many.String())
	assert.Equal(t, "takeLatest", Latest.String())
	assert.Equal(t, "unknown", Mode(7).String())
}

func TestNewActionTaker(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		id            string
		pattern       Pattern
		queryProducer QueryProducer
		mode          Mode
		expectedKind  errors.Kind
	}{
		{
			id:            "Should reject an invalid pattern.",
			pattern:       TypeSet{},
			queryProducer: watch("messages"),
			expectedKind:  errors.InvalidPattern,
		},
		{
			id:            "Should reject a missing query producer.",
			pattern:       ExactType("WATCH_MESSAGES"),
			queryProducer: nil,
			expectedKind:  errors.InvalidQueryProducer,
		},
		{
			id:            "Should reject an unknown mode.",
			pattern:       ExactType("WATCH_MESSAGES"),
			queryProducer: watch("messages"),
			mode:          Mode(9),
			expectedKind:  errors.Invalid,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.id, func(t *testing.T) {
			t.Parallel()

			taker, err := newActionTaker(testCase.pattern, testCase.queryProducer, nil, nil, testCase.mode)

			assert.Nil(t, taker)
			assert.True(t, errors.Is(testCase.expectedKind, err), err)
		})
	}
}

func TestActionTakerDefaultsToMany(t *testing.T) {
	t.Parallel()

	var mode Mode
	taker, err := newActionTaker(ExactType("WATCH_MESSAGES"), watch("messages"), nil, nil, mode)

	require.NoError(t, err)
	assert.Equal(t, Many, taker.Mode())
	assert.NotEmpty(t, taker.ID())
	assert.Equal(t, ExactType("WATCH_MESSAGES"), taker.Pattern())
	assert.Equal(t, "takeEvery(WATCH_MESSAGES)", taker.String())
	assert.False(t, taker.subscribes())
}

func TestActionTakerPlacement(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		id                string
		mode              Mode
		expectedActive    int
		expectedCancelled int
	}{
		{
			id:                "Should keep every subscription in Many mode.",
			mode:              Many,
			expectedActive:    3,
			expectedCancelled: 0,
		},
		{
			id:                "Should keep only the latest subscription in Latest mode.",
			mode:              Latest,
			expectedActive:    1,
			expectedCancelled: 2,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.id, func(t *testing.T) {
			t.Parallel()

			taker, err := newActionTaker(ExactType("WATCH"), watch("messages"), noopSuccess, nil, testCase.mode)
			require.NoError(t, err)

			cancelled := 0
			for index := 0; index < 3; index++ {
				generation, previous := taker.reserve()
				cancelled += len(previous)
				cancelled += len(taker.place(generation, &activeSubscription{}))
			}

			assert.Equal(t, testCase.expectedActive, taker.ActiveSubscriptions())
			assert.Equal(t, testCase.expectedCancelled, cancelled)
		})
	}
}

func TestActionTakerSupersededPlacement(t *testing.T) {
	t.Parallel()

	taker, err := newActionTaker(ExactType("WATCH"), watch("messages"), noopSuccess, nil, Latest)
	require.NoError(t, err)

	older, _ := taker.reserve()
	newer, _ := taker.reserve()

	newest := &activeSubscription{}
	assert.Empty(t, taker.place(newer, newest))

	late := &activeSubscription{}
	assert.Equal(t, []*activeSubscription{late}, taker.place(older, late))
	assert.Equal(t, 1, taker.ActiveSubscriptions())
}

func TestActionTakerForget(t *testing.T) {
	t.Parallel()

	taker, err := newActionTaker(ExactType("WATCH"), watch("messages"), noopSuccess, nil, Many)
	require.NoError(t, err)

	generation, _ := taker.reserve()
	sub := &activeSubscription{}
	taker.place(generation, sub)
	taker.forget(sub)

	assert.Equal(t, 0, taker.ActiveSubscriptions())

	terminated := &activeSubscription{}
	taker.forget(terminated)
	generation, _ = taker.reserve()
	assert.Empty(t, taker.place(generation, terminated))
	assert.Equal(t, 0, taker.ActiveSubscriptions())
}

func TestTakerManagerRemove(t *testing.T) {
	t.Parallel()

	journal := &journal{}
	stream := newFakeStream("messages", journal)

	taker, err := newActionTaker(ExactType("WATCH"), watch("messages"), noopSuccess, nil, Many)
	require.NoError(t, err)

	registry := NewRegistry()
	registry.Append(taker)
	manager := newTakerManager(registry, taker)

	for index := 0; index < 2; index++ {
		generation, _ := taker.reserve()
		taker.place(generation, &activeSubscription{handle: stream.Subscribe(Observer{})})
	}

	manager.Remove()
	manager.Remove()

	assert.Same(t, taker, manager.ActionTaker())
	assert.False(t, registry.Exists(taker))
	assert.True(t, taker.isRemoved())
	assert.Equal(t, 0, taker.ActiveSubscriptions())
	assert.Equal(t, 0, stream.subscribers())
	assert.Equal(t, []string{
		"subscribe messages",
		"subscribe messages",
		"unsubscribe messages",
		"unsubscribe messages",
	}, journal.get())
}

func TestPlacementAfterRemove(t *testing.T) {
	t.Parallel()

	taker, err := newActionTaker(ExactType("WATCH"), watch("messages"), noopSuccess, nil, Many)
	require.NoError(t, err)

	generation, _ := taker.reserve()
	taker.detach()

	late := &activeSubscription{}
	assert.Equal(t, []*activeSubscription{late}, taker.place(generation, late))
	assert.Equal(t, 0, taker.ActiveSubscriptions())
}
