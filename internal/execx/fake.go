package execx

import (
	"context"
	"strings"
)

// Call records one invocation made through a FakeRunner.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// FakeRunner implements Runner with canned responses for testing.
type FakeRunner struct {
	// Outputs maps "name arg1 arg2..." to the stdout returned by Output.
	Outputs map[string][]byte

	// Errors maps "name arg1 arg2..." to the error returned by Output or Run.
	Errors map[string]error

	// Hook, when set, runs inside Run before the canned error is returned.
	Hook func(call Call) error

	Calls []Call
}

// NewFakeRunner creates a new FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs: make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

// Key returns the lookup key used for Outputs and Errors.
func Key(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// Output returns the canned output for the command.
func (r *FakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	r.Calls = append(r.Calls, Call{Name: name, Args: args})
	key := Key(name, args...)
	if err, ok := r.Errors[key]; ok {
		return nil, err
	}
	return r.Outputs[key], nil
}

// Run records the call and returns the canned error, if any.
func (r *FakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	call := Call{Dir: dir, Name: name, Args: args}
	r.Calls = append(r.Calls, call)
	if r.Hook != nil {
		if err := r.Hook(call); err != nil {
			return err
		}
	}
	return r.Errors[Key(name, args...)]
}
