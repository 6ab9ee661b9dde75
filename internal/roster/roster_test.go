package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift/hydra-provisioner/internal/deploy"
	"github.com/openshift/hydra-provisioner/internal/policy"
)

func TestSplitTypeHandlesMissingColon(t *testing.T) {
	systems, features := splitType("x86_64-linux,i686-linux")
	assert.Equal(t, []string{"x86_64-linux", "i686-linux"}, systems)
	assert.Empty(t, features)
}

func TestSplitTypeHandlesEmptyFeatures(t *testing.T) {
	systems, features := splitType("x86_64-linux:")
	assert.Equal(t, []string{"x86_64-linux"}, systems)
	assert.Empty(t, features)
}

func TestSplitTypeHandlesFeatures(t *testing.T) {
	systems, features := splitType("x86_64-linux:kvm,big-parallel")
	assert.Equal(t, []string{"x86_64-linux"}, systems)
	assert.Equal(t, []string{"kvm", "big-parallel"}, features)
}

func TestRenderAddsI686AndEightColumns(t *testing.T) {
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{
		"x86_64-linux:kvm": {SSHKey: "-", MaxJobs: 4, SpeedFactor: 2},
	}}
	deployed := deploy.Deployed{
		"hydra-provisioned-0": {
			Name:          "hydra-provisioned-0",
			Args:          map[string]string{"type": "x86_64-linux:kvm"},
			SSHName:       "worker0.example.invalid",
			PublicHostKey: []byte("ssh-ed25519 AAAA"),
		},
	}

	doc, err := Render(pol, deployed, nil)

	require.NoError(t, err)
	lines := splitLines(doc)
	require.Len(t, lines, 1)
	cols := splitCols(lines[0])
	require.Len(t, cols, 8)
	assert.Equal(t, "root@worker0.example.invalid", cols[0])
	assert.Equal(t, "x86_64-linux,i686-linux", cols[1])
	assert.Equal(t, "4", cols[3])
	assert.Equal(t, "2", cols[4])
	assert.Equal(t, "kvm", cols[5])
	assert.Equal(t, "kvm", cols[6])
}

func TestRenderSkipsUnusable(t *testing.T) {
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{
		"x86_64-linux:": {SSHKey: "-", MaxJobs: 1, SpeedFactor: 1},
	}}
	deployed := deploy.Deployed{
		"hydra-provisioned-0": {Name: "hydra-provisioned-0", Args: map[string]string{"type": "x86_64-linux:"}, SSHName: "w0"},
	}
	unusable := map[string]bool{"hydra-provisioned-0": true}

	doc, err := Render(pol, deployed, unusable)

	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestRenderMissingHostKeyRendersDash(t *testing.T) {
	pol := policy.Policy{SystemTypes: map[string]policy.TypePolicy{
		"x86_64-linux:": {SSHKey: "-", MaxJobs: 1, SpeedFactor: 1},
	}}
	deployed := deploy.Deployed{
		"hydra-provisioned-0": {Name: "hydra-provisioned-0", Args: map[string]string{"type": "x86_64-linux:"}, SSHName: "w0"},
	}

	doc, err := Render(pol, deployed, nil)

	require.NoError(t, err)
	cols := splitCols(splitLines(doc)[0])
	assert.Equal(t, "-", cols[7])
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func splitCols(line string) []string {
	return strings.Fields(line)
}
