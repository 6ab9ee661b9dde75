package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/nixops/nixopsfake"
)

func TestLoadFiltersByTag(t *testing.T) {
	eng := nixopsfake.New()
	_, err := eng.CreateDeployment(context.Background(), "hydra-provisioned-0", map[string]string{ArgTag: "hydra-provisioned"})
	require.NoError(t, err)
	_, err = eng.CreateDeployment(context.Background(), "other-0", map[string]string{ArgTag: "other-tag"})
	require.NoError(t, err)

	inv, err := Load(context.Background(), eng, "hydra-provisioned")
	require.NoError(t, err)

	names := []string{}
	for _, d := range inv.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"hydra-provisioned-0"}, names)
}

func TestCreateAllocatesSmallestFreeName(t *testing.T) {
	eng := nixopsfake.New()
	inv := &Inventory{Tag: "hydra-provisioned"}
	eng.Seed(nixops.Deployment{Name: "hydra-provisioned-0", Args: map[string]string{ArgTag: "hydra-provisioned"}})
	inv.items = []nixops.Deployment{{Name: "hydra-provisioned-0", Args: map[string]string{ArgTag: "hydra-provisioned"}}}

	d, err := inv.Create(context.Background(), eng, "x86_64-linux:")

	require.NoError(t, err)
	assert.Equal(t, "hydra-provisioned-1", d.Name)
}

func TestValidateArgRejectsDoubleQuote(t *testing.T) {
	err := ValidateArg(`evil"value`)
	assert.Error(t, err)
}

func TestValidateArgAllowsOrdinaryValue(t *testing.T) {
	err := ValidateArg("x86_64-linux:big")
	assert.NoError(t, err)
}
