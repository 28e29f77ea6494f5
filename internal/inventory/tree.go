package inventory

import (
	"context"

	"github.com/Guliveer/vitalis/hostnet/internal/models"
)

// Tree is an in-memory Source keyed by parent reference. Nodes with no
// entry have no child collection.
type Tree map[models.Ref][]Node

// Children implements Source.
func (t Tree) Children(_ context.Context, n Node) ([]Node, error) {
	return t[n.Ref], nil
}

// Add appends children under parent and returns the tree for chaining.
func (t Tree) Add(parent Node, children ...Node) Tree {
	t[parent.Ref] = append(t[parent.Ref], children...)
	return t
}

// Datacenter, Folder, ComputeGroup and Host build nodes whose reference
// value equals the name, which is enough for fixtures.

func Datacenter(name string) Node {
	return Node{Kind: KindDatacenter, Name: name, Ref: models.Ref{Type: "Datacenter", Value: name}}
}

func Folder(name string) Node {
	return Node{Kind: KindFolder, Name: name, Ref: models.Ref{Type: "Folder", Value: name}}
}

func ComputeGroup(name string) Node {
	return Node{Kind: KindComputeGroup, Name: name, Ref: models.Ref{Type: "ClusterComputeResource", Value: name}}
}

func Host(name string) Node {
	return Node{Kind: KindHost, Name: name, Ref: models.Ref{Type: "HostSystem", Value: name}}
}
