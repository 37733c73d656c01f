package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psyhelp/testdesk/internal/api"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/journal"
)

func TestRefreshReplacesList(t *testing.T) {
	svc := &fakeService{
		listTests: func(_ context.Context, userID string) ([]api.TestSummary, error) {
			assert.Equal(t, "5", userID)
			return []api.TestSummary{{ID: 9, TestName: "Новый", AuthorsName: []string{"A"}, IsCompleted: true}}, nil
		},
	}
	page, _, _ := newTestPage(svc, " 5 ")
	require.NoError(t, page.Refresh(context.Background()))

	assert.Equal(t, []TestEntry{{ID: 9, TestName: "Новый", AuthorsName: []string{"A"}, IsCompleted: true}}, page.List().Entries())
}

func TestRefreshFailureKeepsList(t *testing.T) {
	svc := &fakeService{
		listTests: func(context.Context, string) ([]api.TestSummary, error) {
			return nil, errors.NewTransientError(api.OpListTests, errors.New("timeout"))
		},
	}
	page, a, _ := newTestPage(svc, "5")
	require.Error(t, page.Refresh(context.Background()))
	assert.Equal(t, 2, page.List().Len())
	assert.Equal(t, []string{MsgListFailed}, a.All())
}

func TestDeleteTest(t *testing.T) {
	t.Run("success removes entry", func(t *testing.T) {
		svc := &fakeService{}
		page, a, r := newTestPage(svc, "5")
		require.NoError(t, page.DeleteTest(context.Background(), 1))

		_, ok := page.List().Get(1)
		assert.False(t, ok)
		assert.Equal(t, 1, page.List().Len())
		assert.Empty(t, a.All())
		assert.Equal(t, []journal.Kind{journal.KindDelete}, r.Kinds())
		assert.False(t, page.IsPending(OpDelete, 1))
	})

	t.Run("missing status counts as success", func(t *testing.T) {
		svc := &fakeService{
			deleteTest: func(context.Context, int) (api.DeleteTestResponse, error) {
				return api.DeleteTestResponse{}, nil
			},
		}
		page, _, _ := newTestPage(svc, "5")
		require.NoError(t, page.DeleteTest(context.Background(), 2))
		assert.Equal(t, 1, page.List().Len())
	})

	t.Run("rejected status surfaces message", func(t *testing.T) {
		svc := &fakeService{
			deleteTest: func(context.Context, int) (api.DeleteTestResponse, error) {
				return api.DeleteTestResponse{Status: "error", Message: "Нельзя удалить пройденный тест"}, nil
			},
		}
		page, a, r := newTestPage(svc, "5")
		err := page.DeleteTest(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, "Нельзя удалить пройденный тест", errors.UserMessage(err, MsgDeleteFailed))
		assert.Equal(t, []string{"Нельзя удалить пройденный тест"}, a.All())
		assert.Equal(t, 2, page.List().Len())
		assert.Empty(t, r.Kinds())
	})

	t.Run("rejected status without message", func(t *testing.T) {
		svc := &fakeService{
			deleteTest: func(context.Context, int) (api.DeleteTestResponse, error) {
				return api.DeleteTestResponse{Status: "error"}, nil
			},
		}
		page, a, _ := newTestPage(svc, "5")
		require.Error(t, page.DeleteTest(context.Background(), 1))
		assert.Equal(t, []string{MsgDeleteFailed}, a.All())
	})

	t.Run("transport failure", func(t *testing.T) {
		svc := &fakeService{
			deleteTest: func(context.Context, int) (api.DeleteTestResponse, error) {
				return api.DeleteTestResponse{}, errors.NewTransientError(api.OpDeleteTest, errors.New("reset"))
			},
		}
		page, a, _ := newTestPage(svc, "5")
		require.Error(t, page.DeleteTest(context.Background(), 1))
		assert.Equal(t, []string{MsgDeleteFailed}, a.All())
		assert.False(t, page.IsPending(OpDelete, 1))
	})
}

func TestDeletePendingIsPerID(t *testing.T) {
	started := make(chan int, 2)
	unblock := make(chan struct{})
	svc := &fakeService{
		deleteTest: func(_ context.Context, id int) (api.DeleteTestResponse, error) {
			started <- id
			<-unblock
			return api.DeleteTestResponse{Status: "success"}, nil
		},
	}

	var mu sync.Mutex
	gauge := map[string]int{}
	page := NewPage(svc, "5", WithPendingObserver(func(kind string, n int) {
		mu.Lock()
		defer mu.Unlock()
		gauge[kind] = n
	}))
	page.List().Replace([]TestEntry{{ID: 1}, {ID: 2}, {ID: 3}})
	ctx := context.Background()

	done := make(chan error, 2)
	go func() { done <- page.DeleteTest(ctx, 1) }()
	<-started

	assert.True(t, page.IsPending(OpDelete, 1))
	assert.False(t, page.IsPending(OpDelete, 2))
	assert.ErrorIs(t, page.DeleteTest(ctx, 1), errors.ErrBusy)

	go func() { done <- page.DeleteTest(ctx, 2) }()
	<-started
	assert.True(t, page.IsPending(OpDelete, 2))

	mu.Lock()
	assert.Equal(t, 2, gauge[string(OpDelete)])
	mu.Unlock()

	close(unblock)
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	assert.False(t, page.IsPending(OpDelete, 1))
	assert.False(t, page.IsPending(OpDelete, 2))
	assert.Equal(t, []TestEntry{{ID: 3}}, page.List().Entries())
	assert.Equal(t, 2, svc.Calls(api.OpDeleteTest))

	mu.Lock()
	assert.Equal(t, 0, gauge[string(OpDelete)])
	mu.Unlock()
}

func TestRecorderFailureDoesNotFailWorkflow(t *testing.T) {
	page := NewPage(&fakeService{}, "5", WithRecorder(failingRecorder{}))
	page.List().Replace([]TestEntry{{ID: 1}})
	require.NoError(t, page.DeleteTest(context.Background(), 1))
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, journal.Event) error {
	return errors.New("journal down")
}
