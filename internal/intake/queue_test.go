package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/foldertags/internal/apperr"
	"github.com/starford/foldertags/internal/prompt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueue_GateSuppressesInitialLoad(t *testing.T) {
	q := New(4, discardLogger())
	if q.Push("early") {
		t.Error("Push before Ready should be ignored")
	}
	q.Ready()
	if !q.Push("late") {
		t.Error("Push after Ready should succeed")
	}
	if diff := cmp.Diff([]string{"late"}, q.Drain()); diff != "" {
		t.Errorf("Drain mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_BoundedAndDeduplicated(t *testing.T) {
	q := New(2, discardLogger())
	q.Ready()
	q.Push("/a/")
	q.Push("a")
	q.Push("b")
	if q.Push("c") {
		t.Error("Push into a full queue should fail")
	}
	if q.Push("") {
		t.Error("root must not be queued")
	}
	if diff := cmp.Diff([]string{"a", "b"}, q.Drain()); diff != "" {
		t.Errorf("Drain mismatch (-want +got):\n%s", diff)
	}
	if q.Len() != 0 {
		t.Errorf("Len after Drain = %d", q.Len())
	}
	if !q.Push("a") {
		t.Error("a drained folder may be queued again")
	}
}

func TestQueue_RunDrainsPeriodically(t *testing.T) {
	q := New(8, discardLogger())
	q.Ready()
	q.Push("x")
	q.Push("y")

	var mu sync.Mutex
	var handled []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx, 10*time.Millisecond, func(_ context.Context, folder string) error {
			mu.Lock()
			defer mu.Unlock()
			handled = append(handled, folder)
			return errors.New("ignored")
		})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(handled)
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"x", "y"}, handled); diff != "" {
		t.Errorf("handled mismatch (-want +got):\n%s", diff)
	}
}

type fixedPrompter struct {
	answer prompt.Answer
	asked  *prompt.Prompt
}

func (f fixedPrompter) Ask(_ context.Context, p prompt.Prompt) (prompt.Answer, error) {
	if f.asked != nil {
		*f.asked = p
	}
	return f.answer, nil
}

type fakeTagger struct {
	effective map[string][]string
	set       func(ctx context.Context, folder string, tags []string) error
}

func (f fakeTagger) GetFolderTagsWithInheritance(folder string) []string {
	return f.effective[folder]
}

func (f fakeTagger) SetFolderTags(ctx context.Context, folder string, tags []string) error {
	return f.set(ctx, folder, tags)
}

func TestPromptHandler(t *testing.T) {
	var gotFolder string
	var gotTags []string
	tagger := fakeTagger{
		effective: map[string][]string{"Projects": {"projects"}},
		set: func(_ context.Context, folder string, tags []string) error {
			gotFolder, gotTags = folder, tags
			return nil
		},
	}
	ctx := context.Background()

	var asked prompt.Prompt
	h := PromptHandler(fixedPrompter{answer: prompt.Answer{Tags: []string{"#work", "q3", "work"}}, asked: &asked}, tagger, discardLogger())
	if err := h(ctx, "Projects/Alpha"); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotFolder != "Projects/Alpha" || !cmp.Equal(gotTags, []string{"work", "q3"}) {
		t.Errorf("SetFolderTags(%q, %v)", gotFolder, gotTags)
	}
	if asked.Kind != prompt.KindTags || !cmp.Equal(asked.Suggested, []string{"projects"}) {
		t.Errorf("prompt = %+v, want tag entry suggesting the parent's tags", asked)
	}

	gotFolder = ""
	h = PromptHandler(fixedPrompter{answer: prompt.Dismissed}, tagger, discardLogger())
	if err := h(ctx, "Other"); err != nil || gotFolder != "" {
		t.Errorf("dismissed prompt: err=%v folder=%q", err, gotFolder)
	}

	h = PromptHandler(fixedPrompter{answer: prompt.Answer{Tags: []string{"2024"}}}, tagger, discardLogger())
	if err := h(ctx, "Numbers"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("numeric tag err = %v, want ErrInvalidInput", err)
	}
	if gotFolder != "" {
		t.Error("invalid tags must not be stored")
	}
}
