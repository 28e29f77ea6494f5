// Package inventory discovers hypervisor hosts inside the controller's
// inventory tree. The tree is fetched lazily through a Source, so the walker
// works the same against a live controller and an in-memory fixture.
package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/hostnet/internal/models"
)

// Kind tags an inventory node. The set is closed; anything else the
// controller returns (VMs, networks, datastores) is never turned into a Node.
type Kind int

const (
	KindDatacenter Kind = iota + 1
	KindFolder
	KindComputeGroup
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindDatacenter:
		return "datacenter"
	case KindFolder:
		return "folder"
	case KindComputeGroup:
		return "compute-group"
	case KindHost:
		return "host"
	default:
		return "unknown"
	}
}

// recurses reports whether children of this kind are walked further.
// Compute groups yield hosts directly and are never descended into.
func (k Kind) recurses() bool {
	return k == KindDatacenter || k == KindFolder
}

// Node is one entry of the inventory tree.
type Node struct {
	Kind Kind
	Name string
	Ref  models.Ref
}

// Source fetches the children of a node.
//
// For a datacenter the only child is its host folder. For a folder the
// children may be of any kind. For a compute group the children are its
// member hosts. A node without a child collection returns no children and no
// error.
type Source interface {
	Children(ctx context.Context, n Node) ([]Node, error)
}

// Walker performs depth-first host discovery.
type Walker struct {
	src    Source
	logger *zap.Logger
}

// NewWalker creates a Walker reading from src.
func NewWalker(src Source, logger *zap.Logger) *Walker {
	return &Walker{src: src, logger: logger}
}

// visitKey separates a container reached outside a host folder from the
// same container reached inside one.
type visitKey struct {
	ref        models.Ref
	inHostTree bool
}

type walkState struct {
	visited map[visitKey]bool
	seen    map[models.Ref]bool
	hosts   []models.Host
}

// Discover returns every host reachable through some datacenter's host
// folder below root. Hosts are deduplicated by reference, never by name.
// The order of the result is not meaningful.
func (w *Walker) Discover(ctx context.Context, root Node) ([]models.Host, error) {
	st := &walkState{
		visited: make(map[visitKey]bool),
		seen:    make(map[models.Ref]bool),
	}
	if err := w.walk(ctx, root, false, st); err != nil {
		return nil, err
	}

	w.logger.Debug("Inventory walk finished",
		zap.Int("containers", len(st.visited)),
		zap.Int("hosts", len(st.hosts)))
	return st.hosts, nil
}

func (w *Walker) walk(ctx context.Context, n Node, inHostTree bool, st *walkState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch n.Kind {
	case KindDatacenter, KindFolder, KindComputeGroup:
	default:
		// Hosts are only collected as members of a compute group.
		return nil
	}

	key := visitKey{ref: n.Ref, inHostTree: inHostTree}
	if st.visited[key] {
		return nil
	}
	st.visited[key] = true

	children, err := w.src.Children(ctx, n)
	if err != nil {
		return fmt.Errorf("list children of %s %q: %w", n.Kind, n.Name, err)
	}

	if !n.Kind.recurses() {
		if !inHostTree {
			return nil
		}
		for _, c := range children {
			if c.Kind == KindHost {
				st.add(c)
			}
		}
		return nil
	}

	childInHostTree := inHostTree || n.Kind == KindDatacenter
	for _, c := range children {
		if err := w.walk(ctx, c, childInHostTree, st); err != nil {
			return err
		}
	}
	return nil
}

func (st *walkState) add(n Node) {
	if st.seen[n.Ref] {
		return
	}
	st.seen[n.Ref] = true
	st.hosts = append(st.hosts, models.Host{Name: n.Name, Ref: n.Ref})
}

// FilterByName keeps the hosts whose name is in allow. An empty allowlist
// keeps every host.
func FilterByName(hosts []models.Host, allow []string) []models.Host {
	if len(allow) == 0 {
		return hosts
	}
	set := make(map[string]bool, len(allow))
	for _, name := range allow {
		set[name] = true
	}
	out := make([]models.Host, 0, len(hosts))
	for _, h := range hosts {
		if set[h.Name] {
			out = append(out, h)
		}
	}
	return out
}
