package horizonredux

import (
	"fmt"
	"testing"
)

func BenchmarkDispatch(b *testing.B) {
	for _, takers := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("takers-%d", takers), func(b *testing.B) {
			hr, err := New(newFakeDataSource())
			if err != nil {
				b.Fatal(err)
			}
			defer hr.Close()

			for index := 0; index < takers; index++ {
				actionType := ActionType(fmt.Sprintf("ACTION_%d", index))
				if _, err := hr.TakeLatest(ExactType(actionType), watch(string(actionType)), noopSuccess, nil); err != nil {
					b.Fatal(err)
				}
			}

			store := newFakeStore(hr.CreateMiddleware())
			action := NewAction("ACTION_0", nil)

			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				store.Dispatch(action)
			}
		})
	}
}

func BenchmarkMatches(b *testing.B) {
	action := NewAction("ADD_ITEM", nil)
	patterns := map[string]Pattern{
		"exact":     ExactType("ADD_ITEM"),
		"set":       TypeSet{"REMOVE_ITEM", "EDIT_ITEM", "ADD_ITEM"},
		"predicate": Predicate(func(action Action) bool { return action.Type == "ADD_ITEM" }),
	}

	for name, pattern := range patterns {
		pattern := pattern
		b.Run(name, func(b *testing.B) {
			for n := 0; n < b.N; n++ {
				Matches(action, pattern)
			}
		})
	}
}
