// Package nixopsfake provides an in-memory nixops.Engine used by
// higher-level tests (reconciler, engine) that want realistic multi-call
// sequences without gomock's call-by-call expectation ceremony. For
// single-call assertions, prefer nixopsmock.
package nixopsfake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openshift/hydra-provisioner/internal/nixops"
)

// Engine is a fake nixops.Engine backed by an in-memory map. Every field
// that a test may want to force (a failing Check, a failing deploy) is a
// func hook that defaults to a no-op success.
type Engine struct {
	mu   sync.Mutex
	depl map[string]*nixops.Deployment

	// CheckFunc, if set, answers every Check call by deployment name in
	// place of the deployment's recorded state.
	CheckFunc func(name string) (nixops.State, error)
	// DeployFunc, if set, is called first; an error it returns fails the
	// deploy, otherwise the deployment is marked up as usual.
	DeployFunc func(name string) error
	// RunCommandFunc, if set, is called instead of the default no-op success.
	RunCommandFunc func(name string, argv []string) error
}

// New returns an empty fake engine.
func New() *Engine {
	return &Engine{depl: map[string]*nixops.Deployment{}}
}

// Seed installs a deployment directly, bypassing CreateDeployment, for
// test setup of pre-existing inventory.
func (e *Engine) Seed(d nixops.Deployment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := d
	e.depl[d.Name] = &cp
}

func (e *Engine) ListDeployments(ctx context.Context) ([]nixops.Deployment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]nixops.Deployment, 0, len(e.depl))
	for _, d := range e.depl {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (e *Engine) CreateDeployment(ctx context.Context, name string, args map[string]string) (nixops.Deployment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.depl[name]; ok {
		return nixops.Deployment{}, fmt.Errorf("deployment %q already exists", name)
	}
	d := nixops.Deployment{
		Name:    name,
		Args:    args,
		State:   nixops.StateMissing,
		SSHName: name + ".example.invalid",
	}
	e.depl[name] = &d
	return d, nil
}

func (e *Engine) SetRecipe(ctx context.Context, d nixops.Deployment, expr string, nixPath []string) error {
	return nil
}

func (e *Engine) Check(ctx context.Context, d nixops.Deployment) (nixops.State, error) {
	if e.CheckFunc != nil {
		return e.CheckFunc(d.Name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.depl[d.Name]; ok {
		return cur.State, nil
	}
	return nixops.StateMissing, nil
}

func (e *Engine) DeployWithCheck(ctx context.Context, d nixops.Deployment) error {
	if e.DeployFunc != nil {
		if err := e.DeployFunc(d.Name); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.depl[d.Name]; ok {
		cur.State = nixops.StateUp
		cur.HasMachine = true
		if cur.SSHName == "" {
			cur.SSHName = d.Name + ".example.invalid"
		}
	}
	return nil
}

func (e *Engine) RunCommand(ctx context.Context, d nixops.Deployment, argv []string) error {
	if e.RunCommandFunc != nil {
		return e.RunCommandFunc(d.Name, argv)
	}
	return nil
}

func (e *Engine) StopMachines(ctx context.Context, d nixops.Deployment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.depl[d.Name]; ok {
		cur.State = nixops.StateStopped
	}
	return nil
}

func (e *Engine) DestroyResources(ctx context.Context, d nixops.Deployment, autoConfirm bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.depl[d.Name]; ok {
		cur.State = nixops.StateMissing
		cur.HasMachine = false
	}
	return nil
}

func (e *Engine) Delete(ctx context.Context, d nixops.Deployment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.depl, d.Name)
	return nil
}

// Get returns the current recorded state of a deployment by name, for test
// assertions.
func (e *Engine) Get(name string) (nixops.Deployment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.depl[name]
	if !ok {
		return nixops.Deployment{}, false
	}
	return *d, true
}

var _ nixops.Engine = (*Engine)(nil)
