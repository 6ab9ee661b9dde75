// Package status fetches and normalises the dispatcher's live queue
// telemetry.
package status

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
)

// TypeStatus is the dispatcher's view of one machine type.
type TypeStatus struct {
	Runnable   int   `json:"runnable"`
	LastActive int64 `json:"lastActive"`
}

// MachineStatus is the dispatcher's view of one live worker.
type MachineStatus struct {
	CurrentJobs int `json:"currentJobs"`
}

// Status is the normalised dispatcher telemetry document.
type Status struct {
	Up           bool
	UptimeSec    int64
	MachineTypes map[string]TypeStatus
	Machines     map[string]MachineStatus
}

// down is returned whenever the fetch fails or the dispatcher itself
// reports down; the controller proceeds with it rather than aborting.
func down() Status {
	return Status{
		Up:           false,
		MachineTypes: map[string]TypeStatus{},
		Machines:     map[string]MachineStatus{},
	}
}

type rawStatus struct {
	Status       string                   `json:"status"`
	Uptime       int64                    `json:"uptime"`
	MachineTypes map[string]TypeStatus    `json:"machineTypes"`
	Machines     map[string]MachineStatus `json:"machines"`
}

// Fetch executes statusCommand and returns the normalised, architecture-
// folded Status. It never returns an error: any failure to exec, parse, or
// a dispatcher-reported "down" status yields a synthesised down Status, per
// spec.
func Fetch(ctx context.Context, log logr.Logger, statusCommand []string) Status {
	if len(statusCommand) == 0 {
		log.Info("no status command configured, proceeding with down status")
		return down()
	}

	cmd := exec.CommandContext(ctx, statusCommand[0], statusCommand[1:]...)
	out, err := cmd.Output()
	if err != nil {
		log.Error(err, "dispatcher status command failed, proceeding with down status", "command", statusCommand)
		return down()
	}

	var raw rawStatus
	if err := json.Unmarshal(out, &raw); err != nil {
		log.Error(err, "dispatcher status output did not parse, proceeding with down status")
		return down()
	}

	if raw.Status != "up" {
		return down()
	}

	s := Status{
		Up:           true,
		UptimeSec:    raw.Uptime,
		MachineTypes: raw.MachineTypes,
		Machines:     raw.Machines,
	}
	if s.MachineTypes == nil {
		s.MachineTypes = map[string]TypeStatus{}
	}
	if s.Machines == nil {
		s.Machines = map[string]MachineStatus{}
	}

	foldArchitectures(s.MachineTypes)
	return s
}

// foldArchitectures squashes every i686-linux machine-type entry into its
// x86_64-linux counterpart, summing the runnable counts. The controller
// assumes no build machine serves 32-bit jobs exclusively: any machine
// advertising x86_64-linux also advertises i686-linux (see roster
// rendering, which re-adds the architecture on the way out).
func foldArchitectures(types map[string]TypeStatus) {
	for name, st := range types {
		if !strings.HasPrefix(name, "i686-linux") {
			continue
		}
		target := "x86_64-linux" + strings.TrimPrefix(name, "i686-linux")
		if existing, ok := types[target]; ok {
			existing.Runnable += st.Runnable
			types[target] = existing
		} else {
			types[target] = st
		}
		delete(types, name)
	}
}
