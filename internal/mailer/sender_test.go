package mailer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedMailer struct {
	failures int
	calls    int
}

func (m *scriptedMailer) Send(ctx context.Context, to, subject, text, html string) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func newTestSender(m Mailer) (*Sender, *[]time.Duration) {
	var slept []time.Duration
	s := NewSender(m)
	s.sleep = func(d time.Duration) { slept = append(slept, d) }
	return s, &slept
}

func TestDeliverSucceedsFirstTry(t *testing.T) {
	m := &scriptedMailer{}
	s, slept := newTestSender(m)

	if !s.Deliver("a@b.c", "subj", "text", "") {
		t.Fatal("expected success")
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("no backoff expected on first-try success, got %v", *slept)
	}
}

func TestDeliverRetriesWithGrowingBackoff(t *testing.T) {
	m := &scriptedMailer{failures: 3}
	s, slept := newTestSender(m)

	if !s.Deliver("a@b.c", "subj", "text", "") {
		t.Fatal("expected eventual success")
	}
	if m.calls != 4 {
		t.Errorf("calls = %d, want 4", m.calls)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("backoffs = %v, want %v", *slept, want)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	m := &scriptedMailer{failures: 100}
	s, _ := newTestSender(m)

	if s.Deliver("a@b.c", "subj", "text", "") {
		t.Fatal("expected failure after exhausting retries")
	}
	if m.calls != maxAttempts {
		t.Errorf("calls = %d, want %d", m.calls, maxAttempts)
	}
}

func TestDeliverWithoutMailerDrops(t *testing.T) {
	s := NewSender(nil)

	if s.Deliver("a@b.c", "subj", "text", "") {
		t.Fatal("unconfigured sender should report failure")
	}
}
