package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emposo/cvision/internal/llm"
	"github.com/emposo/cvision/internal/search"
)

type stubLLM struct {
	tokens   []string
	err      error
	system   string
	user     string
	streamed bool
}

func (s *stubLLM) GenerateJSON(context.Context, string, string, llm.GenerateOptions) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubLLM) StreamContent(_ context.Context, system, user string, _ llm.GenerateOptions, onToken func(string) error) error {
	s.streamed = true
	s.system = system
	s.user = user
	for _, token := range s.tokens {
		if err := onToken(token); err != nil {
			return err
		}
	}
	return s.err
}

func (s *stubLLM) Close() error { return nil }

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vector, s.err
}

type stubSearcher struct {
	results []search.Result
	err     error
}

func (s *stubSearcher) HybridSearch(context.Context, string, []float32, int) ([]search.Result, error) {
	return s.results, s.err
}

func (s *stubSearcher) CheckConnection(context.Context) error { return nil }

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for event := range events {
		out = append(out, event)
	}
	return out
}

func eventNames(events []Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

func TestStream_FullSuccessSequence(t *testing.T) {
	client := &stubLLM{tokens: []string{"Anna ", "passt ", "gut."}}
	searcher := &stubSearcher{results: []search.Result{
		{EmployeeName: "Anna Schmidt", EmployeeAlias: "aschmidt", Title: "Senior Developer"},
	}}
	s := NewStreamer(client, &stubEmbedder{vector: []float32{0.1}}, searcher, nil)

	events := collect(t, s.Stream(context.Background(), "Wer kann Go?", "de"))

	assert.Equal(t, []string{
		EventStart, EventSearchComplete, EventToken, EventToken, EventToken, EventComplete,
	}, eventNames(events))

	sc, ok := events[1].Data.(searchCompletePayload)
	require.True(t, ok)
	assert.Equal(t, 1, sc.ResultsCount)
	require.Len(t, sc.Employees, 1)
	assert.Equal(t, EmployeeSummary{Name: "Anna Schmidt", Alias: "aschmidt", Title: "Senior Developer"}, sc.Employees[0])

	token, ok := events[2].Data.(tokenPayload)
	require.True(t, ok)
	assert.Equal(t, "Anna ", token.Content)
}

func TestStream_EmbeddingFailure(t *testing.T) {
	s := NewStreamer(&stubLLM{}, &stubEmbedder{err: errors.New("quota exceeded")}, &stubSearcher{}, nil)

	events := collect(t, s.Stream(context.Background(), "query", "en"))

	// Failure before search: only start and the terminal error.
	require.Equal(t, []string{EventStart, EventError}, eventNames(events))
	payload, ok := events[1].Data.(errorPayload)
	require.True(t, ok)
	assert.Contains(t, payload.Error, "embedding failed")
}

func TestStream_SearchFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("connection refused")}
	s := NewStreamer(&stubLLM{}, &stubEmbedder{vector: []float32{0.1}}, searcher, nil)

	events := collect(t, s.Stream(context.Background(), "query", "en"))

	require.Equal(t, []string{EventStart, EventError}, eventNames(events))
}

func TestStream_LLMFailureAfterTokens(t *testing.T) {
	client := &stubLLM{tokens: []string{"partial "}, err: errors.New("stream interrupted")}
	s := NewStreamer(client, &stubEmbedder{vector: []float32{0.1}}, &stubSearcher{}, nil)

	events := collect(t, s.Stream(context.Background(), "query", "en"))

	names := eventNames(events)
	assert.Equal(t, []string{EventStart, EventSearchComplete, EventToken, EventError}, names)
	// An error is terminal; complete never follows.
	assert.NotContains(t, names, EventComplete)
}

func TestStream_NotInitialized(t *testing.T) {
	s := NewStreamer(nil, nil, nil, nil)

	events := collect(t, s.Stream(context.Background(), "query", "en"))

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Name)
}

func TestStream_EmptyResultsStillAnswers(t *testing.T) {
	client := &stubLLM{tokens: []string{"Leider ", "niemand."}}
	s := NewStreamer(client, &stubEmbedder{vector: []float32{0.1}}, &stubSearcher{}, nil)

	events := collect(t, s.Stream(context.Background(), "Wer kann COBOL?", "de"))

	assert.Equal(t, []string{EventStart, EventSearchComplete, EventToken, EventToken, EventComplete}, eventNames(events))
	assert.Contains(t, client.user, "Keine passenden Mitarbeiter gefunden.")
}

func TestStream_LanguageSelectsPrompt(t *testing.T) {
	client := &stubLLM{}
	s := NewStreamer(client, &stubEmbedder{vector: []float32{0.1}}, &stubSearcher{}, nil)

	collect(t, s.Stream(context.Background(), "query", "de"))
	assert.Equal(t, systemPromptDE, client.system)
	assert.Contains(t, client.user, "Anfrage:")

	collect(t, s.Stream(context.Background(), "query", "en"))
	assert.Equal(t, systemPromptEN, client.system)
	assert.Contains(t, client.user, "Query:")
}

func TestStream_CancelledContextEndsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewStreamer(&stubLLM{tokens: []string{"a"}}, &stubEmbedder{vector: []float32{0.1}}, &stubSearcher{}, nil)

	done := make(chan struct{})
	go func() {
		for range s.Stream(ctx, "query", "en") {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not terminate after cancellation")
	}
}
