package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift/hydra-provisioner/internal/inventory"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/nixops/nixopsfake"
	"github.com/openshift/hydra-provisioner/internal/policy"
	"github.com/openshift/hydra-provisioner/internal/sizer"
	"github.com/openshift/hydra-provisioner/internal/status"
)

func testPolicy(typeName string) policy.Policy {
	return policy.Policy{
		Tag: "hydra-provisioned",
		SystemTypes: map[string]policy.TypePolicy{
			typeName: {RunnablesPerMachine: 10, MinMachines: 0, MaxMachines: 3, NixopsExpr: "./recipe.nix"},
		},
	}
}

func TestRunColdStartCreatesExactlyOnePerRun(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	inv := &inventory.Inventory{Tag: "hydra-provisioned"}
	typeName := "x86_64-linux:"
	pol := testPolicy(typeName)
	demand := map[string]sizer.Demand{typeName: {Runnable: 100, Wanted: 3, Allowed: 3}}

	res, err := Run(context.Background(), log, nil, eng, inv, pol, status.Status{}, demand, time.Now())

	require.NoError(t, err)
	assert.Len(t, res.InUse, 1, "at most one deployment may be created per type per run")
	assert.Empty(t, res.Expired)
}

func TestRunPaidTimeKeepsDeploymentWithoutDestruction(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	typeName := "x86_64-linux:"
	pol := testPolicy(typeName)
	now := time.Now()

	existing := nixops.Deployment{
		Name:           "hydra-provisioned-0",
		Args:           map[string]string{inventory.ArgTag: "hydra-provisioned", inventory.ArgType: typeName},
		State:          nixops.StateUp,
		SSHName:        "w0.example.invalid",
		NextChargeTime: now.Add(45 * time.Minute),
	}
	eng.Seed(existing)
	inv := &inventory.Inventory{Tag: "hydra-provisioned"}
	require.NoError(t, loadInto(inv, eng))

	demand := map[string]sizer.Demand{typeName: {Runnable: 0, Wanted: 0, Allowed: 0}}

	res, err := Run(context.Background(), log, nil, eng, inv, pol, status.Status{}, demand, now)

	require.NoError(t, err)
	assert.Contains(t, res.InUse, "hydra-provisioned-0")
	assert.Empty(t, res.Expired)
	assert.False(t, res.Unusable["hydra-provisioned-0"])
}

func TestRunGracePeriodKeepsRecentlyActiveDeployment(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	typeName := "x86_64-linux:"
	pol := testPolicy(typeName)
	pol.SystemTypes[typeName] = policy.TypePolicy{RunnablesPerMachine: 10, MaxMachines: 3, GracePeriod: time.Hour}
	now := time.Now()

	existing := nixops.Deployment{
		Name:    "hydra-provisioned-0",
		Args:    map[string]string{inventory.ArgTag: "hydra-provisioned", inventory.ArgType: typeName},
		State:   nixops.StateUp,
		SSHName: "w0.example.invalid",
	}
	eng.Seed(existing)
	inv := &inventory.Inventory{Tag: "hydra-provisioned"}
	require.NoError(t, loadInto(inv, eng))

	st := status.Status{
		UptimeSec: 3600,
		MachineTypes: map[string]status.TypeStatus{
			typeName: {LastActive: now.Add(-10 * time.Minute).Unix()},
		},
	}
	demand := map[string]sizer.Demand{typeName: {Runnable: 0, Wanted: 0, Allowed: 0}}

	res, err := Run(context.Background(), log, nil, eng, inv, pol, st, demand, now)

	require.NoError(t, err)
	assert.Contains(t, res.InUse, "hydra-provisioned-0")
	assert.Empty(t, res.Expired)
}

func TestRunActiveWithZeroGracePeriodIsInUseAndUnusable(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	typeName := "x86_64-linux:"
	pol := testPolicy(typeName)
	pol.SystemTypes[typeName] = policy.TypePolicy{RunnablesPerMachine: 10, MaxMachines: 3, GracePeriod: 0}
	now := time.Now()

	existing := nixops.Deployment{
		Name:    "hydra-provisioned-0",
		Args:    map[string]string{inventory.ArgTag: "hydra-provisioned", inventory.ArgType: typeName},
		State:   nixops.StateUp,
		SSHName: "w0.example.invalid",
	}
	eng.Seed(existing)
	inv := &inventory.Inventory{Tag: "hydra-provisioned"}
	require.NoError(t, loadInto(inv, eng))

	st := status.Status{
		Machines: map[string]status.MachineStatus{
			"root@w0.example.invalid": {CurrentJobs: 2},
		},
	}
	demand := map[string]sizer.Demand{typeName: {Runnable: 0, Wanted: 0, Allowed: 0}}

	res, err := Run(context.Background(), log, nil, eng, inv, pol, st, demand, now)

	require.NoError(t, err)
	assert.Contains(t, res.InUse, "hydra-provisioned-0")
	assert.True(t, res.Unusable["hydra-provisioned-0"])
}

func TestRunStaleDeploymentExpires(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	typeName := "x86_64-linux:"
	pol := testPolicy(typeName)
	pol.SystemTypes[typeName] = policy.TypePolicy{RunnablesPerMachine: 10, MaxMachines: 3, GracePeriod: 10 * time.Minute}
	now := time.Now()

	existing := nixops.Deployment{
		Name:    "hydra-provisioned-0",
		Args:    map[string]string{inventory.ArgTag: "hydra-provisioned", inventory.ArgType: typeName},
		State:   nixops.StateUp,
		SSHName: "w0.example.invalid",
	}
	eng.Seed(existing)
	inv := &inventory.Inventory{Tag: "hydra-provisioned"}
	require.NoError(t, loadInto(inv, eng))

	st := status.Status{
		MachineTypes: map[string]status.TypeStatus{
			typeName: {LastActive: now.Add(-2 * time.Hour).Unix()},
		},
	}
	demand := map[string]sizer.Demand{typeName: {Runnable: 0, Wanted: 0, Allowed: 0}}

	res, err := Run(context.Background(), log, nil, eng, inv, pol, st, demand, now)

	require.NoError(t, err)
	assert.Contains(t, res.Expired, "hydra-provisioned-0")
	assert.NotContains(t, res.InUse, "hydra-provisioned-0")
}

func TestRunMissingDeploymentIsDiscardedDuringSelection(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	typeName := "x86_64-linux:"
	pol := testPolicy(typeName)

	missing := nixops.Deployment{
		Name:  "hydra-provisioned-0",
		Args:  map[string]string{inventory.ArgTag: "hydra-provisioned", inventory.ArgType: typeName},
		State: nixops.StateMissing,
	}
	eng.Seed(missing)
	inv := &inventory.Inventory{Tag: "hydra-provisioned"}
	require.NoError(t, loadInto(inv, eng))

	demand := map[string]sizer.Demand{typeName: {Runnable: 50, Wanted: 1, Allowed: 1}}

	res, err := Run(context.Background(), log, nil, eng, inv, pol, status.Status{}, demand, time.Now())

	require.NoError(t, err)
	assert.NotContains(t, res.InUse, "hydra-provisioned-0")
	assert.Len(t, res.InUse, 1, "a fresh deployment should have been created in place of the missing one")
}

// loadInto re-populates inv from eng the way inventory.Load would, without
// requiring a tag round-trip through a second fake instance.
func loadInto(inv *inventory.Inventory, eng nixops.Engine) error {
	loaded, err := inventory.Load(context.Background(), eng, inv.Tag)
	if err != nil {
		return err
	}
	*inv = *loaded
	return nil
}
