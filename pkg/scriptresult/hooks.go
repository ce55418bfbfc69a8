package scriptresult

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/logger"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

// Built-in commissioning scripts whose output updates the node
const (
	LSHWScript       = "00-maas-01-lshw"
	VirtualityScript = "00-maas-02-virtuality"
)

// VirtualTag marks nodes that commissioning found to be virtual machines
const VirtualTag = "virtual"

// NodeInfoHooks returns the options registering the hooks of the built-in node-info scripts
func NodeInfoHooks(nodes nodesv1.NodeServiceClient, tags tagsv1.TagServiceClient, log logger.Logger) []NewStoreOption {
	return []NewStoreOption{
		WithHook(LSHWScript, LSHWHook(nodes)),
		WithHook(VirtualityScript, VirtualityHook(nodes, tags, log)),
	}
}

// LSHWHook stores the lshw document as the node's hardware details, which
// re-evaluates every defined tag for the node.
func LSHWHook(nodes nodesv1.NodeServiceClient) Hook {
	return func(ctx context.Context, node *nodesv1.Node, stdout []byte, exitStatus *int) error {
		if exitStatus == nil || *exitStatus != 0 {
			return nil
		}
		_, err := nodes.UpdateHardwareDetails(ctx, &nodesv1.UpdateHardwareDetailsRequest{
			Id:   node.SystemID(),
			LSHW: stdout,
		})
		return err
	}
}

// VirtualityHook records the detected virtualization technology and keeps
// the virtual tag in line with it.
func VirtualityHook(nodes nodesv1.NodeServiceClient, tags tagsv1.TagServiceClient, log logger.Logger) Hook {
	return func(ctx context.Context, node *nodesv1.Node, stdout []byte, exitStatus *int) error {
		if exitStatus != nil && *exitStatus != 0 {
			return nil
		}
		virtuality := string(bytes.TrimSpace(stdout))
		if virtuality == "" {
			log.Warn("no virtuality reported by commissioning", "node", node.SystemID())
			return nil
		}

		patch, err := json.Marshal(map[string]any{
			"hardware_details": map[string]any{"virtuality": virtuality},
		})
		if err != nil {
			return err
		}
		if _, err := nodes.Patch(ctx, &nodesv1.PatchRequest{Id: node.SystemID(), Patch: patch}); err != nil {
			return fmt.Errorf("recording virtuality: %w", err)
		}

		// The virtual tag is best effort, the virtuality above is what the result records
		if err := ensureTag(ctx, tags, VirtualTag); err != nil {
			log.Error("couldn't create tag", "tag", VirtualTag, "node", node.SystemID(), "error", err)
			return nil
		}
		req := &tagsv1.UpdateNodesRequest{Id: VirtualTag}
		if virtuality == "none" {
			req.Remove = []string{node.SystemID()}
		} else {
			req.Add = []string{node.SystemID()}
		}
		if _, err := tags.UpdateNodes(ctx, req); err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				log.Warn("tag has a definition, leaving membership to it", "tag", VirtualTag, "node", node.SystemID())
				return nil
			}
			log.Error("couldn't update tag", "tag", VirtualTag, "node", node.SystemID(), "error", err)
		}
		return nil
	}
}

func ensureTag(ctx context.Context, tags tagsv1.TagServiceClient, name string) error {
	_, err := tags.Get(ctx, &tagsv1.GetRequest{Id: name})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return err
	}
	_, err = tags.Create(ctx, &tagsv1.CreateRequest{Tag: &tagsv1.Tag{Meta: &types.Meta{Name: name}}})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return err
}
