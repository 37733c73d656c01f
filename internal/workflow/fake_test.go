package workflow

import (
	"context"
	"sync"

	"github.com/psyhelp/testdesk/internal/api"
	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/journal"
)

// fakeService is a scriptable api.Service. Unset funcs return zero values.
type fakeService struct {
	mu sync.Mutex

	listTests      func(ctx context.Context, userID string) ([]api.TestSummary, error)
	fetchQuestions func(ctx context.Context, testID int) (assessment.RawQuestions, error)
	submitAttempt  func(ctx context.Context, req api.SubmitAttemptRequest) (api.MessageResponse, error)
	loadTest       func(ctx context.Context, testID int) (api.LoadTestResponse, error)
	updateTest     func(ctx context.Context, req api.UpdateTestRequest) (api.UpdateTestResponse, error)
	addTest        func(ctx context.Context, req api.AddTestRequest) (api.MessageResponse, error)
	deleteTest     func(ctx context.Context, testID int) (api.DeleteTestResponse, error)

	calls map[string]int
}

var _ api.Service = (*fakeService)(nil)

func (f *fakeService) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeService) ListTests(ctx context.Context, userID string) ([]api.TestSummary, error) {
	f.count(api.OpListTests)
	if f.listTests == nil {
		return nil, nil
	}
	return f.listTests(ctx, userID)
}

func (f *fakeService) FetchQuestions(ctx context.Context, testID int) (assessment.RawQuestions, error) {
	f.count(api.OpFetchQuestions)
	if f.fetchQuestions == nil {
		return nil, nil
	}
	return f.fetchQuestions(ctx, testID)
}

func (f *fakeService) SubmitAttempt(ctx context.Context, req api.SubmitAttemptRequest) (api.MessageResponse, error) {
	f.count(api.OpSubmitAttempt)
	if f.submitAttempt == nil {
		return api.MessageResponse{}, nil
	}
	return f.submitAttempt(ctx, req)
}

func (f *fakeService) LoadTest(ctx context.Context, testID int) (api.LoadTestResponse, error) {
	f.count(api.OpLoadTest)
	if f.loadTest == nil {
		return api.LoadTestResponse{}, nil
	}
	return f.loadTest(ctx, testID)
}

func (f *fakeService) UpdateTest(ctx context.Context, req api.UpdateTestRequest) (api.UpdateTestResponse, error) {
	f.count(api.OpUpdateTest)
	if f.updateTest == nil {
		return api.UpdateTestResponse{}, nil
	}
	return f.updateTest(ctx, req)
}

func (f *fakeService) AddTest(ctx context.Context, req api.AddTestRequest) (api.MessageResponse, error) {
	f.count(api.OpAddTest)
	if f.addTest == nil {
		return api.MessageResponse{}, nil
	}
	return f.addTest(ctx, req)
}

func (f *fakeService) DeleteTest(ctx context.Context, testID int) (api.DeleteTestResponse, error) {
	f.count(api.OpDeleteTest)
	if f.deleteTest == nil {
		return api.DeleteTestResponse{Status: "success"}, nil
	}
	return f.deleteTest(ctx, testID)
}

type alerts struct {
	mu       sync.Mutex
	messages []string
}

func (a *alerts) Notify(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

func (a *alerts) All() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type memRecorder struct {
	mu     sync.Mutex
	events []journal.Event
}

func (r *memRecorder) Record(_ context.Context, e journal.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memRecorder) Kinds() []journal.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]journal.Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func rawQuestions(n int) assessment.RawQuestions {
	out := make(assessment.RawQuestions, n)
	for i := range out {
		out[i] = assessment.RawQuestion{
			ID:            assessment.NumberOf(float64(i + 1)),
			QuestionBody:  "Question",
			AnswerOptions: assessment.RawOptions{assessment.StringOption("a"), assessment.StringOption("b"), assessment.StringOption("c")},
		}
	}
	return out
}

func newTestPage(svc *fakeService, userID string) (*Page, *alerts, *memRecorder) {
	a := &alerts{}
	r := &memRecorder{}
	p := NewPage(svc, userID, WithNotifier(a), WithRecorder(r))
	p.List().Replace([]TestEntry{
		{ID: 1, TestName: "Тревожность", QuestionCount: 2},
		{ID: 2, TestName: "Стресс", QuestionCount: 3},
	})
	return p, a, r
}
