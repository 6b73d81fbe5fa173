// Package chat streams LLM answers about employee search results as a typed
// event sequence. The event logic is transport-agnostic; an HTTP adapter
// serializes events to server-sent-event wire framing.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/llm"
	"github.com/emposo/cvision/internal/search"
)

const (
	chatTemperature = 0.7
	chatMaxTokens   = 2000
	searchTop       = 10
)

// ErrNotInitialized indicates the streamer was constructed without its
// required collaborators.
var ErrNotInitialized = errors.New("chat streamer not initialized")

// Streamer embeds a query, retrieves matching employees, and streams an LLM
// answer grounded in the retrieved context.
type Streamer struct {
	llm      llm.Client
	embedder llm.Embedder
	searcher search.Searcher
	logger   *zap.Logger
}

// NewStreamer creates a Streamer with the given collaborators.
func NewStreamer(client llm.Client, embedder llm.Embedder, searcher search.Searcher, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streamer{llm: client, embedder: embedder, searcher: searcher, logger: logger}
}

// Stream runs one independent chat exchange and returns its event channel.
// The channel is closed when the exchange ends; the last event is either
// complete (full success) or error (any stage failure). Event emission stops
// when ctx is cancelled, e.g. on client disconnect.
func (s *Streamer) Stream(ctx context.Context, query, language string) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		s.run(ctx, query, language, events)
	}()
	return events
}

func (s *Streamer) run(ctx context.Context, query, language string, events chan<- Event) {
	if s.llm == nil || s.embedder == nil || s.searcher == nil {
		emit(ctx, events, Event{Name: EventError, Data: errorPayload{Error: ErrNotInitialized.Error()}})
		return
	}

	if !emit(ctx, events, Event{Name: EventStart, Data: startPayload{Status: "started"}}) {
		return
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.fail(ctx, events, fmt.Errorf("embedding failed: %w", err))
		return
	}

	results, err := s.searcher.HybridSearch(ctx, query, queryVector, searchTop)
	if err != nil {
		s.fail(ctx, events, fmt.Errorf("search failed: %w", err))
		return
	}

	summaries := make([]EmployeeSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, EmployeeSummary{
			Name:  r.EmployeeName,
			Alias: r.EmployeeAlias,
			Title: r.Title,
		})
	}
	if !emit(ctx, events, Event{Name: EventSearchComplete, Data: searchCompletePayload{
		ResultsCount: len(results),
		Employees:    summaries,
	}}) {
		return
	}

	chatContext := assembleContext(results, language)
	var userContent string
	if language == "de" {
		userContent = fmt.Sprintf("Anfrage: %s\n\nMitarbeiterinformationen:\n%s", query, chatContext)
	} else {
		userContent = fmt.Sprintf("Query: %s\n\nEmployee information:\n%s", query, chatContext)
	}

	err = s.llm.StreamContent(ctx, systemPrompt(language), userContent, llm.GenerateOptions{
		Temperature:     chatTemperature,
		MaxOutputTokens: chatMaxTokens,
	}, func(token string) error {
		if !emit(ctx, events, Event{Name: EventToken, Data: tokenPayload{Content: token}}) {
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		s.fail(ctx, events, err)
		return
	}

	emit(ctx, events, Event{Name: EventComplete, Data: completePayload{Status: "complete"}})
}

// fail emits the terminal error event. No complete event ever follows.
func (s *Streamer) fail(ctx context.Context, events chan<- Event, err error) {
	s.logger.Error("chat streaming error", zap.Error(err))
	emit(ctx, events, Event{Name: EventError, Data: errorPayload{Error: err.Error()}})
}

// emit sends an event unless the consumer has gone away.
func emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
