package retire

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
)

func TestRunSkipsActiveDeploymentWithPaidTimeRemaining(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	now := time.Now()
	typeName := "x86_64-linux:"
	d := nixops.Deployment{
		Name:           "hydra-provisioned-0",
		Args:           map[string]string{inventory.ArgType: typeName},
		State:          nixops.StateUp,
		NextChargeTime: now.Add(15 * time.Minute),
	}
	eng.Seed(d)
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{typeName: {}}}

	Run(context.Background(), log, nil, eng, pol, now, map[string]nixops.Deployment{d.Name: d})

	got, ok := eng.Get(d.Name)
	require.True(t, ok)
	assert.Equal(t, nixops.StateUp, got.State, "must not stop or destroy while paid time remains")
}

func TestRunDestroysExpiredDeploymentWithoutStopOnIdle(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	now := time.Now()
	typeName := "x86_64-linux:"
	d := nixops.Deployment{
		Name:  "hydra-provisioned-0",
		Args:  map[string]string{inventory.ArgType: typeName},
		State: nixops.StateUp,
	}
	eng.Seed(d)
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{typeName: {StopOnIdle: false}}}

	Run(context.Background(), log, nil, eng, pol, now, map[string]nixops.Deployment{d.Name: d})

	_, ok := eng.Get(d.Name)
	assert.False(t, ok, "destroyed deployments are deleted from the engine's record")
}

func TestRunStopsInsteadOfDestroyingWhenStopOnIdle(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	now := time.Now()
	typeName := "x86_64-linux:"
	d := nixops.Deployment{
		Name:  "hydra-provisioned-0",
		Args:  map[string]string{inventory.ArgType: typeName},
		State: nixops.StateUp,
	}
	eng.Seed(d)
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{typeName: {StopOnIdle: true}}}

	Run(context.Background(), log, nil, eng, pol, now, map[string]nixops.Deployment{d.Name: d})

	got, ok := eng.Get(d.Name)
	require.True(t, ok, "stopped deployments keep their record, unlike destroyed ones")
	assert.Equal(t, nixops.StateStopped, got.State)
}

func TestRunStopOnIdleIsNoOpWhenAlreadyStopped(t *testing.T) {
	log := testr.New(t)
	eng := nixopsfake.New()
	now := time.Now()
	typeName := "x86_64-linux:"
	d := nixops.Deployment{
		Name:  "hydra-provisioned-0",
		Args:  map[string]string{inventory.ArgType: typeName},
		State: nixops.StateStopped,
	}
	eng.Seed(d)
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{typeName: {StopOnIdle: true}}}

	Run(context.Background(), log, nil, eng, pol, now, map[string]nixops.Deployment{d.Name: d})

	got, ok := eng.Get(d.Name)
	require.True(t, ok)
	assert.Equal(t, nixops.StateStopped, got.State)
}
