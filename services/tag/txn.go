package tag

import (
	"context"
	"errors"
	"slices"

	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

// nodeTxn saves node membership changes and remembers the tags every node had
// before and after so the changes can be undone. Only tags are ever touched,
// other fields of a node belong to whoever wrote them last.
type nodeTxn struct {
	repo   repository.NodeRepository
	logger logger.Logger
	before map[string][]string
	after  map[string][]string
	order  []string
}

func newNodeTxn(repo repository.NodeRepository, l logger.Logger) *nodeTxn {
	return &nodeTxn{
		repo:   repo,
		logger: l,
		before: map[string][]string{},
		after:  map[string][]string{},
	}
}

// each runs fn on every stored node and saves those for which fn returns true.
// Nodes deleted in the meantime are skipped.
func (t *nodeTxn) each(ctx context.Context, fn func(*nodesv1.Node) bool) error {
	nodeList, err := t.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, node := range nodeList {
		_, err := t.modify(ctx, node.SystemID(), fn)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// modify runs fn on the current version of node id and saves it if fn returns true
func (t *nodeTxn) modify(ctx context.Context, id string, fn func(*nodesv1.Node) bool) (bool, error) {
	var before, after []string
	_, changed, err := repository.Modify[nodesv1.Node](ctx, t.repo, id, func(n *nodesv1.Node) (bool, error) {
		before = slices.Clone(n.Tags)
		if !fn(n) {
			return false, nil
		}
		n.NormalizeTags()
		after = slices.Clone(n.Tags)
		return true, nil
	})
	if err != nil || !changed {
		return changed, err
	}
	if _, ok := t.before[id]; !ok {
		t.before[id] = before
		t.order = append(t.order, id)
	}
	t.after[id] = after
	return true, nil
}

// rollback reverts the tag changes made by the transaction, leaving tag
// changes made by others in place.
func (t *nodeTxn) rollback(ctx context.Context) {
	for i := len(t.order) - 1; i >= 0; i-- {
		id := t.order[i]
		before, after := t.before[id], t.after[id]
		_, _, err := repository.Modify[nodesv1.Node](ctx, t.repo, id, func(n *nodesv1.Node) (bool, error) {
			changed := false
			for _, tag := range after {
				if !slices.Contains(before, tag) && n.RemoveTag(tag) {
					changed = true
				}
			}
			for _, tag := range before {
				if !slices.Contains(after, tag) && n.AddTag(tag) {
					changed = true
				}
			}
			return changed, nil
		})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			t.logger.Error("couldn't restore node", "name", id, "error", err)
		}
	}
}
