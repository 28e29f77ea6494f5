package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/Guliveer/vitalis/hostnet/internal/inventory"
	"github.com/Guliveer/vitalis/hostnet/internal/models"
)

// kindOf maps a managed object type to an inventory kind. Zero means the
// object is not part of the host hierarchy.
func kindOf(moType string) inventory.Kind {
	switch moType {
	case "Datacenter":
		return inventory.KindDatacenter
	case "Folder":
		return inventory.KindFolder
	case "ComputeResource", "ClusterComputeResource":
		return inventory.KindComputeGroup
	case "HostSystem":
		return inventory.KindHost
	default:
		return 0
	}
}

func toRef(r types.ManagedObjectReference) models.Ref {
	return models.Ref{Type: r.Type, Value: r.Value}
}

func fromRef(r models.Ref) types.ManagedObjectReference {
	return types.ManagedObjectReference{Type: r.Type, Value: r.Value}
}

// Root returns the controller's root folder.
func (s *Session) Root() inventory.Node {
	return inventory.Node{
		Kind: inventory.KindFolder,
		Name: "/",
		Ref:  toRef(s.vim.ServiceContent.RootFolder),
	}
}

// Children implements inventory.Source using the property collector.
func (s *Session) Children(ctx context.Context, n inventory.Node) ([]inventory.Node, error) {
	ref := fromRef(n.Ref)

	var refs []types.ManagedObjectReference
	switch n.Kind {
	case inventory.KindDatacenter:
		var dc mo.Datacenter
		if err := s.pc.RetrieveOne(ctx, ref, []string{"hostFolder"}, &dc); err != nil {
			return nil, fmt.Errorf("retrieve hostFolder: %w", err)
		}
		if dc.HostFolder.Value != "" {
			refs = append(refs, dc.HostFolder)
		}
	case inventory.KindFolder:
		var f mo.Folder
		if err := s.pc.RetrieveOne(ctx, ref, []string{"childEntity"}, &f); err != nil {
			return nil, fmt.Errorf("retrieve childEntity: %w", err)
		}
		refs = f.ChildEntity
	case inventory.KindComputeGroup:
		var cr mo.ComputeResource
		if err := s.pc.RetrieveOne(ctx, ref, []string{"host"}, &cr); err != nil {
			return nil, fmt.Errorf("retrieve host: %w", err)
		}
		refs = cr.Host
	default:
		return nil, nil
	}

	return s.describe(ctx, refs)
}

// describe fetches the names of the references that belong to the host
// hierarchy and drops everything else.
func (s *Session) describe(ctx context.Context, refs []types.ManagedObjectReference) ([]inventory.Node, error) {
	known := make([]types.ManagedObjectReference, 0, len(refs))
	for _, r := range refs {
		if kindOf(r.Type) != 0 {
			known = append(known, r)
		}
	}
	if len(known) == 0 {
		return nil, nil
	}

	var entities []mo.ManagedEntity
	if err := s.pc.Retrieve(ctx, known, []string{"name"}, &entities); err != nil {
		return nil, fmt.Errorf("retrieve names: %w", err)
	}

	nodes := make([]inventory.Node, 0, len(entities))
	for _, e := range entities {
		nodes = append(nodes, inventory.Node{
			Kind: kindOf(e.Self.Type),
			Name: e.Name,
			Ref:  toRef(e.Self),
		})
	}
	return nodes, nil
}
