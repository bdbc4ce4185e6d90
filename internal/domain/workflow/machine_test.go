package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{State("Create"), false},
		{State("Review"), false},
		{State("Approve"), false},
		{StateCompleted, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_LinearChain(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("Create")).Permit(TriggerAdvance, State("Review"))
	builder.Configure(State("Review")).Permit(TriggerAdvance, State("Approve"))
	builder.Configure(State("Approve")).
		Permit(TriggerAdvance, StateCompleted).
		Permit(TriggerReject, StateRejected)

	machine, err := builder.Build(State("Create"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ctx := context.Background()

	steps := []State{State("Review"), State("Approve"), StateCompleted}
	for _, want := range steps {
		if err := machine.Fire(ctx, TriggerAdvance); err != nil {
			t.Fatalf("Fire(Advance) error = %v", err)
		}
		if got := machine.State(); got != want {
			t.Errorf("State() = %v, want %v", got, want)
		}
	}

	// COMPLETED is terminal: nothing fires from it
	if machine.CanFire(TriggerAdvance) {
		t.Error("CanFire(Advance) from terminal state = true, want false")
	}
	if err := machine.Fire(ctx, TriggerAdvance); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire(Advance) from terminal state error = %v, want ErrInvalidTransition", err)
	}
}

func TestBuilder_UnknownInitialState(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("Create")).Permit(TriggerAdvance, State("Review"))

	if _, err := builder.Build(State("Nowhere")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Build(unknown) error = %v, want ErrInvalidState", err)
	}
}

func TestBuilder_TransitionTargetIsKnown(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("Approve")).Permit(TriggerAdvance, StateCompleted)

	// A state introduced only as a transition target is still buildable
	if _, err := builder.Build(StateCompleted); err != nil {
		t.Errorf("Build(target-only state) error = %v", err)
	}
}

func TestMachine_Reject(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("Approve")).
		Permit(TriggerAdvance, StateCompleted).
		Permit(TriggerReject, StateRejected)

	machine, err := builder.Build(State("Approve"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := machine.Fire(context.Background(), TriggerReject); err != nil {
		t.Fatalf("Fire(Reject) error = %v", err)
	}
	if got := machine.State(); got != StateRejected {
		t.Errorf("State() = %v, want %v", got, StateRejected)
	}
}

func TestMachine_GuardedTransitions(t *testing.T) {
	tests := []struct {
		name      string
		guard     bool
		wantState State
		wantErr   error
	}{
		{"guard passes", true, State("Review"), nil},
		{"guard fails", false, State("Create"), ErrGuardFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewBuilder()
			builder.Configure(State("Create")).
				PermitIf(TriggerAdvance, State("Review"), func(ctx context.Context) bool {
					return tt.guard
				})

			machine, err := builder.Build(State("Create"))
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			err = machine.Fire(context.Background(), TriggerAdvance)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Fire() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fire() error = %v, want %v", err, tt.wantErr)
			}
			if got := machine.State(); got != tt.wantState {
				t.Errorf("State() = %v, want %v", got, tt.wantState)
			}
		})
	}
}

func TestMachine_BuildIsolation(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("Create")).Permit(TriggerAdvance, State("Review"))
	builder.Configure(State("Review")).Permit(TriggerAdvance, StateCompleted)

	m1, err := builder.Build(State("Create"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	m2, err := builder.Build(State("Create"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := m1.Fire(context.Background(), TriggerAdvance); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	if got := m2.State(); got != State("Create") {
		t.Errorf("second machine state = %v, want Create", got)
	}
}

func TestMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("Approve")).
		Permit(TriggerAdvance, StateCompleted).
		Permit(TriggerReject, StateRejected)

	machine, err := builder.Build(State("Approve"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	seen := map[Trigger]bool{}
	for _, tr := range triggers {
		seen[tr] = true
	}
	if !seen[TriggerAdvance] || !seen[TriggerReject] {
		t.Errorf("PermittedTriggers() = %v, want Advance and Reject", triggers)
	}
}
