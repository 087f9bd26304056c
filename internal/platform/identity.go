// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"context"
	"encoding/json"
	"strings"

	"swiftbridge/internal/run"
)

// Identity is the device-or-simulator identity of a target triple. Two
// triples with the same Identity produce libraries that can be merged into
// one fat binary.
type Identity struct {
	OS        OS
	Simulator bool
}

func (id Identity) String() string {
	if id.Simulator {
		return string(id.OS) + "-sim"
	}
	return string(id.OS)
}

// Resolver classifies target triples by asking rustc for their target spec.
type Resolver struct {
	Runner run.Runner
	Rustc  string
}

// Resolve determines the platform identity of triple. The triple's name
// alone is not authoritative: simulator status comes from the llvm-target
// field of rustc's target spec.
func (r *Resolver) Resolve(ctx context.Context, triple string) (Identity, error) {
	os, err := ParseTripleOS(triple)
	if err != nil {
		return Identity{}, err
	}

	out, err := r.Runner.Run(ctx, run.Cmd{
		Path: r.Rustc,
		Args: []string{
			"-Z", "unstable-options",
			"--print", "target-spec-json",
			"--target", triple,
		},
		Env: []string{"RUSTC_BOOTSTRAP=1"},
	})
	if err != nil {
		return Identity{}, err
	}

	var spec struct {
		LLVMTarget string `json:"llvm-target"`
	}
	if err := json.Unmarshal(out.Stdout, &spec); err != nil {
		return Identity{}, &ResolutionError{Triple: triple, Reason: "target spec is not valid JSON"}
	}
	if spec.LLVMTarget == "" {
		return Identity{}, &ResolutionError{Triple: triple, Reason: "target spec has no llvm-target"}
	}

	return Identity{OS: os, Simulator: hasSimulatorSuffix(spec.LLVMTarget)}, nil
}

func hasSimulatorSuffix(llvmTarget string) bool {
	return strings.HasSuffix(llvmTarget, "-simulator")
}
