package session

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStoreSaveGet(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	id := NewThreadID()
	if err := s.Save(ctx, &ThreadState{ThreadID: id}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st == nil {
		t.Fatal("Get returned nil for a saved thread")
	}
	if st.CreatedAt.IsZero() || st.LastSeenAt.IsZero() {
		t.Error("Save did not stamp CreatedAt/LastSeenAt")
	}
	if st.MaxTurns != 160 {
		t.Errorf("MaxTurns = %d, want store default 160", st.MaxTurns)
	}
}

func TestInMemoryStoreGetMissing(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()

	st, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st != nil {
		t.Errorf("Get = %+v, want nil for a missing thread", st)
	}
}

func TestInMemoryStoreSaveValidation(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Save(ctx, nil); err == nil {
		t.Error("Save(nil) succeeded")
	}
	if err := s.Save(ctx, &ThreadState{}); err == nil {
		t.Error("Save without a thread ID succeeded")
	}
}

func TestInMemoryStoreAppendTurnTrims(t *testing.T) {
	s := NewInMemoryStore(WithMaxTurns(3))
	defer s.Close()
	ctx := context.Background()

	id := NewThreadID()
	if err := s.Save(ctx, &ThreadState{ThreadID: id}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, text := range []string{"하나", "둘", "셋", "넷", "다섯"} {
		if err := s.AppendTurn(ctx, id, &TurnRecord{Text: text}); err != nil {
			t.Fatalf("AppendTurn(%s): %v", text, err)
		}
	}

	st, _ := s.Get(ctx, id)
	if len(st.Turns) != 3 {
		t.Fatalf("retained %d turns, want 3", len(st.Turns))
	}
	if st.TurnCount != 5 {
		t.Errorf("TurnCount = %d, want 5 (total ever appended)", st.TurnCount)
	}
	if got := st.Text(); got != "셋\n넷\n다섯" {
		t.Errorf("Text() = %q, want the last three turns", got)
	}
}

func TestInMemoryStoreAppendToMissingThread(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()

	if err := s.AppendTurn(context.Background(), "nope", &TurnRecord{Text: "x"}); err == nil {
		t.Error("AppendTurn to a missing thread succeeded")
	}
}

func TestInMemoryStoreStaleThreadNotFound(t *testing.T) {
	s := NewInMemoryStore(WithMaxAge(10 * time.Millisecond))
	defer s.Close()
	ctx := context.Background()

	id := NewThreadID()
	if err := s.Save(ctx, &ThreadState{ThreadID: id}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	st, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st != nil {
		t.Error("stale thread still returned")
	}
}

func TestInMemoryStoreDelete(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	id := NewThreadID()
	if err := s.Save(ctx, &ThreadState{ThreadID: id}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if st, _ := s.Get(ctx, id); st != nil {
		t.Error("thread survived Delete")
	}
}

func TestInMemoryStoreStats(t *testing.T) {
	s := NewInMemoryStore(WithMaxTurns(2))
	defer s.Close()
	ctx := context.Background()

	id := NewThreadID()
	s.Save(ctx, &ThreadState{ThreadID: id})
	for i := 0; i < 4; i++ {
		s.AppendTurn(ctx, id, &TurnRecord{Text: "t"})
	}

	stats := s.Stats()
	if stats.ThreadCount != 1 {
		t.Errorf("ThreadCount = %d, want 1", stats.ThreadCount)
	}
	if stats.TotalTurns != 4 {
		t.Errorf("TotalTurns = %d, want 4", stats.TotalTurns)
	}
	if stats.RetainedTurns != 2 {
		t.Errorf("RetainedTurns = %d, want 2", stats.RetainedTurns)
	}
}

func TestThreadStateTextEmpty(t *testing.T) {
	var st *ThreadState
	if st.Text() != "" {
		t.Error("nil state Text() not empty")
	}
	if (&ThreadState{}).Text() != "" {
		t.Error("empty state Text() not empty")
	}
}
