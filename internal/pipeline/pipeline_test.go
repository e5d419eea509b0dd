package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/websentry/websentry/internal/model"
)

// mockStep is a configurable Step for pipeline tests.
type mockStep struct {
	name string
	fn   func(ctx context.Context, report *model.ScreeningReport) error
}

func (m *mockStep) Name() string { return m.name }

func (m *mockStep) Do(ctx context.Context, report *model.ScreeningReport) error {
	if m.fn == nil {
		return nil
	}
	return m.fn(ctx, report)
}

// TestPipelineExecuteOrder tests that steps run in the order added.
func TestPipelineExecuteOrder(t *testing.T) {
	t.Parallel()

	var order []string
	record := func(name string) *mockStep {
		return &mockStep{name: name, fn: func(_ context.Context, _ *model.ScreeningReport) error {
			order = append(order, name)
			return nil
		}}
	}

	p := New()
	p.AddSteps(record("fetch"), record("screen"), record("persist"))

	report := model.NewScreeningReport("https://example.com")
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"fetch", "screen", "persist"}
	if len(order) != len(want) {
		t.Fatalf("executed %d steps, expected %d", len(order), len(want))
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("step[%d] = %q, expected %q", i, order[i], name)
		}
	}
}

// TestPipelineStopsOnError tests the default fail-fast behavior.
func TestPipelineStopsOnError(t *testing.T) {
	t.Parallel()

	stepErr := errors.New("fetch failed")
	executed := false

	p := New()
	p.AddSteps(
		&mockStep{name: "fetch", fn: func(_ context.Context, _ *model.ScreeningReport) error {
			return stepErr
		}},
		&mockStep{name: "screen", fn: func(_ context.Context, _ *model.ScreeningReport) error {
			executed = true
			return nil
		}},
	)

	report := model.NewScreeningReport("https://example.com")
	err := p.Execute(context.Background(), report)
	if !errors.Is(err, stepErr) {
		t.Errorf("Execute error = %v, expected %v", err, stepErr)
	}
	if executed {
		t.Error("subsequent step should not run after failure")
	}
	if !errors.Is(report.Error, stepErr) {
		t.Error("error should be recorded in report")
	}
	if report.ErrorMessage != stepErr.Error() {
		t.Errorf("ErrorMessage = %q", report.ErrorMessage)
	}
}

// TestPipelineContinueOnError tests that failures don't stop execution
// when configured.
func TestPipelineContinueOnError(t *testing.T) {
	t.Parallel()

	executed := false

	p := New(WithContinueOnError(true))
	p.AddSteps(
		&mockStep{name: "fetch", fn: func(_ context.Context, _ *model.ScreeningReport) error {
			return errors.New("fetch failed")
		}},
		&mockStep{name: "screen", fn: func(_ context.Context, _ *model.ScreeningReport) error {
			executed = true
			return nil
		}},
	)

	report := model.NewScreeningReport("https://example.com")
	if err := p.Execute(context.Background(), report); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !executed {
		t.Error("subsequent step should run with continueOnError")
	}
}

// TestPipelineCancellation tests that a cancelled context stops the
// pipeline before the next step.
func TestPipelineCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	executed := false
	p := New()
	p.AddSteps(
		&mockStep{name: "first", fn: func(_ context.Context, _ *model.ScreeningReport) error {
			cancel()
			return nil
		}},
		&mockStep{name: "second", fn: func(_ context.Context, _ *model.ScreeningReport) error {
			executed = true
			return nil
		}},
	)

	report := model.NewScreeningReport("https://example.com")
	err := p.Execute(ctx, report)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute error = %v, expected context.Canceled", err)
	}
	if executed {
		t.Error("step after cancellation should not run")
	}
	if report.ErrorMessage == "" {
		t.Error("cancellation should be recorded in report")
	}
}

// TestPipelineStepNames tests step introspection.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	if p.StepCount() != 0 {
		t.Errorf("empty pipeline StepCount = %d", p.StepCount())
	}

	p.AddStep(&mockStep{name: "fetch"})
	p.AddStep(&mockStep{name: "screen"})

	if p.StepCount() != 2 {
		t.Errorf("StepCount = %d, expected 2", p.StepCount())
	}

	names := p.StepNames()
	if len(names) != 2 || names[0] != "fetch" || names[1] != "screen" {
		t.Errorf("StepNames = %v", names)
	}
}
