package lifecycle

import (
	"context"

	"github.com/looplab/fsm"
)

// Events accepted by the deployment machine.
const (
	EventDeploy  = "deploy"  // user asks for a deployment
	EventConfirm = "confirm" // backend confirms the model is up
	EventFail    = "fail"    // backend reports the operation failed
	EventStop    = "stop"    // user asks to tear the model down
	EventRelease = "release" // backend confirms teardown finished
)

// Machine validates deployment transitions for a single model. Poll results
// are authoritative and bypass it; only user-initiated (optimistic)
// transitions are guarded here.
type Machine struct {
	f *fsm.FSM
}

// NewMachine creates a machine starting at the given status.
func NewMachine(initial Status) *Machine {
	return &Machine{
		f: fsm.NewFSM(
			string(initial),
			fsm.Events{
				{Name: EventDeploy, Src: []string{string(StatusNotDeployed), string(StatusFailed), string(StatusUnknown)}, Dst: string(StatusInProgress)},
				{Name: EventConfirm, Src: []string{string(StatusInProgress), string(StatusInit)}, Dst: string(StatusDeployed)},
				{Name: EventFail, Src: []string{string(StatusInProgress), string(StatusInit), string(StatusDeleting)}, Dst: string(StatusFailed)},
				{Name: EventStop, Src: []string{string(StatusDeployed)}, Dst: string(StatusDeleting)},
				{Name: EventRelease, Src: []string{string(StatusDeleting)}, Dst: string(StatusNotDeployed)},
			},
			fsm.Callbacks{},
		),
	}
}

// Current returns the machine's current status.
func (m *Machine) Current() Status {
	return Status(m.f.Current())
}

// Can reports whether the named event is legal from the current status.
func (m *Machine) Can(event string) bool {
	return m.f.Can(event)
}

// Fire applies the named event, or returns the fsm error when illegal.
func (m *Machine) Fire(ctx context.Context, event string) error {
	return m.f.Event(ctx, event)
}
