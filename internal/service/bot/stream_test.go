package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func collectFragments(t *testing.T, s *Stream) []string {
	t.Helper()
	var fragments []string
	for {
		fragment, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return fragments
		}
		if err != nil {
			t.Fatalf("Recv err: %v", err)
		}
		fragments = append(fragments, fragment)
	}
}

func TestStreamRespondDeliversFragmentsAndRecordsTurn(t *testing.T) {
	chatModel := &fakeChatModel{chunks: []string{"That sounds ", "really hard. ", "I'm here."}}
	manager, _ := newTestManager(t, chatModel, defaultStudyConfig())
	ctx := context.Background()

	info, err := manager.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	stream, err := manager.StreamRespond(ctx, info.SessionID, "rough week")
	if err != nil {
		t.Fatalf("StreamRespond err: %v", err)
	}
	fragments := collectFragments(t, stream)
	if len(fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d: %v", len(fragments), fragments)
	}

	final, ok := stream.Final()
	if !ok {
		t.Fatal("Final not available after EOF")
	}
	if final != "That sounds really hard. I'm here." {
		t.Fatalf("unexpected final text: %q", final)
	}

	history, _ := manager.History(info.SessionID)
	if len(history) != 2 {
		t.Fatalf("expected 2 turns after stream, got %d", len(history))
	}
	if history[1].Content != final {
		t.Fatalf("assistant turn %q != final %q", history[1].Content, final)
	}
}

func TestStreamRespondUnknownSession(t *testing.T) {
	manager, _ := newTestManager(t, &fakeChatModel{}, defaultStudyConfig())

	if _, err := manager.StreamRespond(context.Background(), "missing", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStreamEarlyStopAtSentenceBoundary(t *testing.T) {
	cfg := defaultStudyConfig()
	cfg.MaxWords = 5
	chatModel := &fakeChatModel{chunks: []string{
		"One two three four ",
		"five six seven. ",
		"eight nine ten",
	}}
	manager, _ := newTestManager(t, chatModel, cfg)
	ctx := context.Background()

	info, err := manager.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	stream, err := manager.StreamRespond(ctx, info.SessionID, "hello")
	if err != nil {
		t.Fatalf("StreamRespond err: %v", err)
	}
	fragments := collectFragments(t, stream)
	if len(fragments) != 2 {
		t.Fatalf("expected stop after the sentence-ending fragment, got %d fragments: %v", len(fragments), fragments)
	}

	final, _ := stream.Final()
	if final != "One two three four five six seven." {
		t.Fatalf("unexpected final text: %q", final)
	}
}

func TestStreamProviderStartFailureFallsBack(t *testing.T) {
	manager, _ := newTestManager(t, &fakeChatModel{err: errors.New("connection refused")}, defaultStudyConfig())
	ctx := context.Background()

	info, err := manager.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	stream, err := manager.StreamRespond(ctx, info.SessionID, "hi")
	if err != nil {
		t.Fatalf("StreamRespond must not fail on provider errors, got %v", err)
	}
	fragments := collectFragments(t, stream)
	if len(fragments) != 1 || !strings.Contains(fragments[0], "I'm sorry") {
		t.Fatalf("expected a single apologetic fragment, got %v", fragments)
	}

	history, _ := manager.History(info.SessionID)
	if len(history) != 2 {
		t.Fatalf("fallback turn must still be recorded, got %d turns", len(history))
	}
}

func TestStreamAbandonedLeavesHistoryUntouched(t *testing.T) {
	chatModel := &fakeChatModel{chunks: []string{"partial ", "text"}}
	manager, _ := newTestManager(t, chatModel, defaultStudyConfig())
	ctx := context.Background()

	info, err := manager.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	stream, err := manager.StreamRespond(ctx, info.SessionID, "hi")
	if err != nil {
		t.Fatalf("StreamRespond err: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv err: %v", err)
	}
	stream.Close()

	history, _ := manager.History(info.SessionID)
	if len(history) != 0 {
		t.Fatalf("abandoned stream must not append turns, got %v", history)
	}
}

func TestStreamCollect(t *testing.T) {
	chatModel := &fakeChatModel{chunks: []string{"Thanks for ", "sharing that."}}
	manager, _ := newTestManager(t, chatModel, defaultStudyConfig())
	ctx := context.Background()

	info, err := manager.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	stream, err := manager.StreamRespond(ctx, info.SessionID, "hi")
	if err != nil {
		t.Fatalf("StreamRespond err: %v", err)
	}
	final, err := stream.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect err: %v", err)
	}
	if final != "Thanks for sharing that." {
		t.Fatalf("unexpected collected text: %q", final)
	}
}

func TestTruncateWords(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{
			name:  "under limit unchanged",
			text:  "Short and sweet.",
			limit: 10,
			want:  "Short and sweet.",
		},
		{
			name:  "cut at last sentence before limit",
			text:  "This is a sentence that is somewhat long. And here is more text that goes past the cap.",
			limit: 8,
			want:  "This is a sentence that is somewhat long.",
		},
		{
			name:  "cut at first punctuation past limit",
			text:  "one two three four five six seven. eight nine",
			limit: 5,
			want:  "one two three four five six seven.",
		},
		{
			name:  "no punctuation hard cut",
			text:  "a b c d e f g h i j k l m n o p q r s t u v w x y z aa bb cc dd",
			limit: 4,
			want:  "a b c d",
		},
		{
			name:  "question mark counts as sentence end",
			text:  "Do you want to talk about it? I am listening closely friend.",
			limit: 7,
			want:  "Do you want to talk about it?",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncateWords(tc.text, tc.limit); got != tc.want {
				t.Fatalf("truncateWords(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
			}
		})
	}
}
