package provisioning

import (
	"context"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
)

// Env is what every transition can read. Transitions never modify it.
type Env struct {
	Client  client.ResourceGraphClient
	Config  Config
	Request Request
}

// Transition performs one remote operation and returns the next context.
type Transition func(ctx context.Context, env Env, state Context) (Context, error)

// Step is one state of the provisioning machine.
type Step struct {
	Name string
	// Requires lists the fields that must be captured before the step runs.
	Requires []Field
	// Advisory steps record their failure as a warning and the run continues.
	Advisory bool
	Run      Transition
	// Fallback, when set, produces the context used after an advisory failure.
	Fallback func(env Env, state Context) Context
}

// Observer is told about every transition. Observers must not influence the run.
type Observer interface {
	StepStarted(step Step, state Context)
	StepSucceeded(step Step, state Context)
	StepFailed(step Step, state Context, err error)
}

// Machine runs its steps strictly in order.
type Machine struct {
	Steps     []Step
	Observers []Observer
}

// Run executes every step. The returned context is the last good state, and is returned together
// with an *AbortError when a fatal step fails or a step's preconditions are not met.
func (m Machine) Run(ctx context.Context, env Env, state Context) (Context, error) {
	for _, step := range m.Steps {
		if missing := state.Missing(step.Requires...); len(missing) != 0 {
			err := &PreconditionError{Step: step.Name, Missing: missing}
			m.failed(step, state, err)
			return state, &AbortError{Step: step.Name, Context: state, Cause: err}
		}

		m.started(step, state)

		next, err := step.Run(ctx, env, state.clone())

		if err != nil {
			m.failed(step, state, err)

			if !step.Advisory {
				return state, &AbortError{Step: step.Name, Context: state, Cause: err}
			}

			if step.Fallback != nil {
				state = step.Fallback(env, state.clone())
			}

			state.Warnings = append(state.Warnings, Warning{Step: step.Name, Cause: err.Error()})
			continue
		}

		state = next
		m.succeeded(step, state)
	}

	return state, nil
}

func (m Machine) started(step Step, state Context) {
	for _, observer := range m.Observers {
		observer.StepStarted(step, state)
	}
}

func (m Machine) succeeded(step Step, state Context) {
	for _, observer := range m.Observers {
		observer.StepSucceeded(step, state)
	}
}

func (m Machine) failed(step Step, state Context, err error) {
	for _, observer := range m.Observers {
		observer.StepFailed(step, state, err)
	}
}
