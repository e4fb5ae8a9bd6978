package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"spam-trainer/internal/domain"
	"spam-trainer/internal/trainer"
)

type fakePredictor struct {
	mu     sync.Mutex
	texts  []string
	result domain.PredictionResult
	err    error
	gate   chan struct{}
}

func (f *fakePredictor) Predict(ctx context.Context, text string) (domain.PredictionResult, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.result, f.err
}

func (f *fakePredictor) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// TestPredictRejectsEmptyInput checks blank text never reaches the network.
func TestPredictRejectsEmptyInput(t *testing.T) {
	fake := &fakePredictor{}
	p := NewPredictions(fake, zerolog.Nop())

	for _, text := range []string{"", "   ", "\t\n", "　"} {
		if _, err := p.Predict(context.Background(), text); !errors.Is(err, ErrEmptyPredictionInput) {
			t.Fatalf("Predict(%q) error = %v, want %v", text, err, ErrEmptyPredictionInput)
		}
	}
	if n := len(fake.calls()); n != 0 {
		t.Fatalf("predictor called %d times", n)
	}
}

// TestPredictReturnsValuesUnmodified checks pass-through of the service result.
func TestPredictReturnsValuesUnmodified(t *testing.T) {
	want := domain.PredictionResult{Prediction: "Spam", HamProbability: 0.02, SpamProbability: 0.98, ProcessedText: "win free prize"}
	fake := &fakePredictor{result: want}
	p := NewPredictions(fake, zerolog.Nop())

	got, err := p.Predict(context.Background(), "  Win a free prize now  ")
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got != want {
		t.Fatalf("result = %+v, want %+v", got, want)
	}
	if sent := fake.calls(); len(sent) != 1 || sent[0] != "Win a free prize now" {
		t.Fatalf("sent = %q", sent)
	}
}

// TestPredictNormalizesWidth checks compatibility normalization.
func TestPredictNormalizesWidth(t *testing.T) {
	if got := NormalizeInput(" ＷＩＮ ｎｏｗ "); got != "WIN now" {
		t.Fatalf("NormalizeInput() = %q", got)
	}
}

// TestPredictForwardsOriginalCharacters checks compatibility forms reach the
// service as typed, only trimmed.
func TestPredictForwardsOriginalCharacters(t *testing.T) {
	fake := &fakePredictor{result: domain.PredictionResult{Prediction: "Spam"}}
	p := NewPredictions(fake, zerolog.Nop())

	if _, err := p.Predict(context.Background(), " ＷＩＮ ﬁnal ｏｆｆｅｒ\n"); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if sent := fake.calls(); len(sent) != 1 || sent[0] != "ＷＩＮ ﬁnal ｏｆｆｅｒ" {
		t.Fatalf("sent = %q", sent)
	}
}

// TestPredictRejectsReentry checks only one request is pending at a time.
func TestPredictRejectsReentry(t *testing.T) {
	fake := &fakePredictor{gate: make(chan struct{}), result: domain.PredictionResult{Prediction: "Ham"}}
	p := NewPredictions(fake, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := p.Predict(context.Background(), "hello")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !p.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("first prediction never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := p.Predict(context.Background(), "again"); !errors.Is(err, ErrPredictionInFlight) {
		t.Fatalf("second Predict() error = %v, want %v", err, ErrPredictionInFlight)
	}

	close(fake.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Predict() error = %v", err)
	}
	if p.Pending() {
		t.Fatal("still pending after completion")
	}
}

// TestPredictPropagatesRequestError checks failures reach the caller.
func TestPredictPropagatesRequestError(t *testing.T) {
	fake := &fakePredictor{err: &trainer.RequestError{Message: "HTTP error: status 500", StatusCode: 500}}
	p := NewPredictions(fake, zerolog.Nop())

	_, err := p.Predict(context.Background(), "hello")
	var reqErr *trainer.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 500 {
		t.Fatalf("error = %v, want RequestError 500", err)
	}
}
