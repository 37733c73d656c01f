package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestListCopyOnWrite(t *testing.T) {
	l := NewTestList()
	l.Replace([]TestEntry{{ID: 1, TestName: "A"}, {ID: 2, TestName: "B"}})

	before := l.Entries()
	require.True(t, l.MarkCompleted(2))
	after := l.Entries()

	assert.False(t, before[1].IsCompleted, "earlier snapshot must not change")
	assert.True(t, after[1].IsCompleted)
	assert.False(t, after[0].IsCompleted)
}

func TestTestListReplaceCopiesInput(t *testing.T) {
	l := NewTestList()
	in := []TestEntry{{ID: 1}}
	l.Replace(in)
	in[0].ID = 99

	e, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, e.ID)

	l.Replace(nil)
	assert.NotNil(t, l.Entries())
	assert.Equal(t, 0, l.Len())
}

func TestTestListReconcile(t *testing.T) {
	l := NewTestList()
	l.Replace([]TestEntry{{ID: 1, TestName: "Old", IsCompleted: true}, {ID: 2, TestName: "Other"}})

	require.True(t, l.Reconcile(1, EntryPatch{TestName: "New", Description: "D", QuestionCount: 4}))
	e, _ := l.Get(1)
	assert.Equal(t, TestEntry{ID: 1, TestName: "New", Description: "D", QuestionCount: 4, IsCompleted: true}, e)

	other, _ := l.Get(2)
	assert.Equal(t, "Other", other.TestName)

	assert.False(t, l.Reconcile(3, EntryPatch{}))
}

func TestTestListRemove(t *testing.T) {
	l := NewTestList()
	l.Replace([]TestEntry{{ID: 1}, {ID: 2}, {ID: 3}})
	before := l.Entries()

	require.True(t, l.Remove(2))
	assert.False(t, l.Remove(2))

	ids := []int{}
	for _, e := range l.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int{1, 3}, ids)
	assert.Len(t, before, 3)
	assert.Equal(t, 2, before[1].ID)
}
