// Package roster renders the worker-roster document the dispatcher reads,
// and hands it off via pipe or atomic file write.
package roster

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/openshift/hydra-provisioner/internal/deploy"
	"github.com/openshift/hydra-provisioner/internal/inventory"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/policy"
)

// DefaultPath is the well-known file the dispatcher reads when no
// updateCommand is configured.
const DefaultPath = "/var/lib/hydra/provisioner/machines"

// Render produces the roster document for every deployment in
// deployed \ unusable, one line per worker. Lines are sorted by ssh target
// for deterministic output, since the underlying map iteration is not.
func Render(pol policy.Policy, deployed deploy.Deployed, unusable map[string]bool) (string, error) {
	var lines []string

	for name, d := range deployed {
		if unusable[name] {
			continue
		}

		typeName := d.Args[inventory.ArgType]
		typePolicy, ok := pol.SystemTypes[typeName]
		if !ok {
			return "", errors.Errorf("deployment %q has type %q with no policy, cannot render roster line", name, typeName)
		}

		line, err := renderLine(d, typeName, typePolicy)
		if err != nil {
			return "", errors.Wrapf(err, "rendering roster line for %q", name)
		}
		lines = append(lines, line)
	}

	sort.Strings(lines)
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func renderLine(d nixops.Deployment, typeName string, tp policy.TypePolicy) (string, error) {
	systems, features := splitType(typeName)
	if contains(systems, "x86_64-linux") && !contains(systems, "i686-linux") {
		systems = append(systems, "i686-linux")
	}

	featuresCol := "-"
	if len(features) > 0 {
		featuresCol = strings.Join(features, ",")
	}

	sshKey := tp.SSHKey
	if sshKey == "" {
		sshKey = "-"
	}

	hostKeyCol := "-"
	if len(d.PublicHostKey) > 0 {
		hostKeyCol = base64.StdEncoding.EncodeToString(d.PublicHostKey)
	}

	columns := []string{
		"root@" + d.SSHName,
		strings.Join(systems, ","),
		sshKey,
		strconv.Itoa(tp.MaxJobs),
		strconv.Itoa(tp.SpeedFactor),
		featuresCol,
		featuresCol,
		hostKeyCol,
	}

	for _, c := range columns {
		if c == "" {
			return "", errors.New("roster column is empty, refusing to emit an invalid line")
		}
	}

	return strings.Join(columns, " "), nil
}

func splitType(typeName string) (systems, features []string) {
	sysPart, featPart, hasColon := strings.Cut(typeName, ":")
	systems = splitNonEmpty(sysPart)
	if hasColon {
		features = splitNonEmpty(featPart)
	}
	return systems, features
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}

// Emit hands the rendered document off to updateCommand's stdin, or writes
// it atomically to path if updateCommand is empty.
func Emit(ctx context.Context, document string, updateCommand []string, path string) error {
	if len(updateCommand) > 0 {
		cmd := exec.CommandContext(ctx, updateCommand[0], updateCommand[1:]...)
		cmd.Stdin = strings.NewReader(document)
		if err := cmd.Run(); err != nil {
			return errors.Wrapf(err, "running update command %v", updateCommand)
		}
		return nil
	}

	if path == "" {
		path = DefaultPath
	}
	return writeFileAtomic(path, []byte(document))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".machines-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %q", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %q", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %q", tmpPath)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return errors.Wrapf(err, "chmod %q", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "renaming %q to %q", tmpPath, path)
	}
	return nil
}
