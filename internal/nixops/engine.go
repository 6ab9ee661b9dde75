// Package nixops defines the narrow capability interface the controller
// requires of the deployment engine. Nothing in this package talks to a
// real deployment engine; the concrete backend lives in internal/nixopscli,
// and tests exercise the reconciler against nixopsmock or nixopsfake instead.
package nixops

import (
	"context"
	"time"
)

// State is a deployment's observed lifecycle state. Only Up is considered
// usable; Up and Starting both count as active for retirement purposes.
type State string

const (
	StateMissing  State = "missing"
	StateStarting State = "starting"
	StateUp       State = "up"
	StateStopped  State = "stopped"
)

// Active reports whether a state counts as active for retention purposes.
func (s State) Active() bool {
	return s == StateUp || s == StateStarting
}

// Deployment is an opaque handle to a unit owned by the deployment engine.
// The controller never constructs one directly; it only receives them from
// an Engine and passes them back.
type Deployment struct {
	Name string
	Args map[string]string

	// State and the machine-derived fields below are a snapshot taken at
	// the time the Engine returned this handle. A fresh Check call may
	// supersede State.
	State         State
	SSHName       string
	PublicHostKey []byte
	HasMachine    bool

	// NextChargeTime is the absolute time of the underlying cloud
	// machine's next billing boundary. Zero means "no machine, or the
	// engine does not know".
	NextChargeTime time.Time
}

// TimeLeft returns the duration until NextChargeTime, floored at zero.
func (d Deployment) TimeLeft(now time.Time) time.Duration {
	if d.NextChargeTime.IsZero() {
		return 0
	}
	left := d.NextChargeTime.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Engine is the only interface the controller requires of the deployment
// engine. Implementations own the lifetime and storage of Deployments; the
// controller holds no more than a handle.
type Engine interface {
	// ListDeployments returns every deployment the engine currently
	// tracks, regardless of tag. Callers filter by tag themselves
	// (internal/inventory) so that tag isolation is enforced in one
	// place and is independently testable.
	ListDeployments(ctx context.Context) ([]Deployment, error)

	// CreateDeployment registers a new, empty deployment with the given
	// name and args. The name must not already be in use.
	CreateDeployment(ctx context.Context, name string, args map[string]string) (Deployment, error)

	// SetRecipe points an existing deployment at the given deployment
	// recipe and search path, ahead of a future DeployWithCheck.
	SetRecipe(ctx context.Context, d Deployment, expr string, nixPath []string) error

	// Check performs a liveness check against the deployment's machine
	// and returns its freshly observed state. It is an I/O operation and
	// may fail; callers must treat a failure as a demotion, not a crash.
	Check(ctx context.Context, d Deployment) (State, error)

	// DeployWithCheck (re)applies the deployment's recipe, blocking until
	// the engine confirms the result, equivalent to the source's
	// depl.deploy(check=true).
	DeployWithCheck(ctx context.Context, d Deployment) error

	// RunCommand executes argv on the deployment's machine over SSH.
	RunCommand(ctx context.Context, d Deployment, argv []string) error

	// StopMachines requests a graceful stop of the deployment's machine
	// without destroying its resources.
	StopMachines(ctx context.Context, d Deployment) error

	// DestroyResources tears down the cloud resources backing d.
	// autoConfirm mirrors the source's logger.set_autoresponse("y"):
	// destructive prompts the engine would otherwise raise are
	// auto-answered affirmatively.
	DestroyResources(ctx context.Context, d Deployment, autoConfirm bool) error

	// Delete removes the deployment record itself, after its resources
	// have been destroyed.
	Delete(ctx context.Context, d Deployment) error
}
