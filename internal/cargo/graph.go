// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// bindgenDepName is the crate dependency that marks a package as needing
// generated bindings.
const bindgenDepName = "uniffi"

// companionConfigName is the per-crate bindgen configuration file that must
// sit next to the crate's Cargo.toml.
const companionConfigName = "uniffi.toml"

type (
	// BindingPackage is one crate that requires generated bindings, with its
	// dependency edges restricted to other binding crates. Edges to crates
	// outside the binding set are not binding targets and are dropped.
	BindingPackage struct {
		Name         string
		ID           string
		ManifestPath string
		Dependencies []*BindingPackage
	}

	// AmbiguousRootError reports that the discovered binding crates do not
	// have exactly one root (a crate no other binding crate depends on).
	// Zero candidates means the graph is cyclic or disconnected; more than
	// one means multiple independent roots.
	AmbiguousRootError struct {
		Candidates []string
	}

	// UnsupportedSourcingError reports a binding crate pulled from a
	// registry. Companion Swift sources are located relative to the crate's
	// checkout, and registry packages have no discoverable checkout path.
	UnsupportedSourcingError struct {
		Package string
		ID      string
	}
)

func (e *AmbiguousRootError) Error() string {
	if len(e.Candidates) == 0 {
		return "expected 1 top-level binding crate, found none (dependency cycle or empty set)"
	}
	return fmt.Sprintf("expected 1 top-level binding crate, found %d: %s",
		len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *UnsupportedSourcingError) Error() string {
	return fmt.Sprintf("unsupported package id %q for crate %s: crates must be integrated as a git repo or a local path so their Swift sources can be located", e.ID, e.Package)
}

// DiscoverBindingPackages filters the package universe down to binding
// crates and builds their dependency trees. A crate qualifies iff it has a
// non-optional normal dependency on the bindgen facility and carries a
// companion config file next to its manifest.
func DiscoverBindingPackages(md *Metadata) ([]*BindingPackage, error) {
	var survivors []*Package
	for i := range md.Packages {
		p := &md.Packages[i]
		if isBindingPackage(p) {
			survivors = append(survivors, p)
		}
	}

	for _, p := range survivors {
		if !strings.HasPrefix(p.ID, "git+") && !strings.HasPrefix(p.ID, "path+") {
			return nil, &UnsupportedSourcingError{Package: p.Name, ID: p.ID}
		}
	}

	nodes := make([]*BindingPackage, 0, len(survivors))
	for _, p := range survivors {
		nodes = append(nodes, buildNode(p, survivors, map[string]bool{}))
	}
	return nodes, nil
}

func isBindingPackage(p *Package) bool {
	dependsOnBindgen := false
	for _, d := range p.Dependencies {
		if d.Name == bindgenDepName && !d.Optional && d.IsNormal() {
			dependsOnBindgen = true
			break
		}
	}
	if !dependsOnBindgen {
		return false
	}
	companion := filepath.Join(filepath.Dir(p.ManifestPath), companionConfigName)
	_, err := os.Stat(companion)
	return err == nil
}

// buildNode resolves p's dependency edges against the survivor set,
// recursing into each match. Edges back to an ancestor are dropped so a
// cyclic declaration cannot recurse forever; the cycle still surfaces as an
// AmbiguousRootError because every crate on it has an incoming edge.
func buildNode(p *Package, survivors []*Package, ancestors map[string]bool) *BindingPackage {
	node := &BindingPackage{Name: p.Name, ID: p.ID, ManifestPath: p.ManifestPath}

	ancestors[p.Name] = true
	defer delete(ancestors, p.Name)

	for _, d := range p.Dependencies {
		for _, s := range survivors {
			if s.Name != d.Name || ancestors[s.Name] {
				continue
			}
			node.Dependencies = append(node.Dependencies, buildNode(s, survivors, ancestors))
		}
	}
	return node
}

// Root returns the unique binding crate no other binding crate depends on.
func Root(nodes []*BindingPackage) (*BindingPackage, error) {
	dependedOn := make(map[string]bool)
	for _, n := range nodes {
		for _, d := range n.Dependencies {
			dependedOn[d.Name] = true
		}
	}

	var roots []*BindingPackage
	for _, n := range nodes {
		if !dependedOn[n.Name] {
			roots = append(roots, n)
		}
	}
	if len(roots) != 1 {
		names := make([]string, len(roots))
		for i, r := range roots {
			names[i] = r.Name
		}
		return nil, &AmbiguousRootError{Candidates: names}
	}
	return roots[0], nil
}

// DependsOn reports whether other is a direct dependency of p.
func (p *BindingPackage) DependsOn(other string) bool {
	for _, d := range p.Dependencies {
		if d.Name == other {
			return true
		}
	}
	return false
}

// Iter walks the tree rooted at p, yielding each crate before its
// dependencies. The traversal is stack-based, so siblings appear in reverse
// declaration order; generated-manifest target ordering depends on this, so
// the order is part of the contract. Crates reachable via more than one path
// are yielded once per path: callers that need uniqueness de-duplicate
// themselves. Each call walks the immutable tree afresh.
func (p *BindingPackage) Iter() iter.Seq[*BindingPackage] {
	return func(yield func(*BindingPackage) bool) {
		stack := []*BindingPackage{p}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(node) {
				return
			}
			for _, dep := range node.Dependencies {
				stack = append(stack, dep)
			}
		}
	}
}

// SwiftWrapperFileName is the name of the generated Swift wrapper source for
// this crate.
func (p *BindingPackage) SwiftWrapperFileName() string {
	return p.Name + ".swift"
}
