package jvm

import (
	"fmt"
	"sync"
)

// State of a Process.
type State uint8

const (
	// Idle processes have not started a VM yet.
	Idle State = iota

	// Running processes host a live VM.
	Running

	// Terminated processes have destroyed their VM.  They cannot start
	// another one.
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}

	return fmt.Sprintf("State(%d)", uint8(s))
}

// Default is the process-wide VM holder.
var Default = new(Process)

// Process guards the single VM that a host process may run over its
// lifetime.  The zero-value Process is idle and ready to use.
type Process struct {
	mu    sync.Mutex
	state State
	vm    VM
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Idle returns ErrAlreadyStarted unless p can still start a VM.
func (p *Process) Idle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Idle {
		return fmt.Errorf("%w (%s)", ErrAlreadyStarted, p.state)
	}

	return nil
}

// Start the VM using l.  It fails with ErrAlreadyStarted unless p is idle,
// including after the VM has been killed.
func (p *Process) Start(l Launcher, opt Options) (VM, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Idle {
		return nil, fmt.Errorf("%w (%s)", ErrAlreadyStarted, p.state)
	}

	vm, err := l.Launch(opt)
	if err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}

	p.vm, p.state = vm, Running
	return vm, nil
}

// VM returns the running VM, or ErrNotStarted.
func (p *Process) VM() (VM, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running {
		return nil, fmt.Errorf("%w (%s)", ErrNotStarted, p.state)
	}

	return p.vm, nil
}

// Kill destroys the VM.  The process transitions to Terminated even if
// the VM reports an error while shutting down.
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running {
		return fmt.Errorf("%w (%s)", ErrNotStarted, p.state)
	}

	vm := p.vm
	p.vm, p.state = nil, Terminated
	return vm.Close()
}
