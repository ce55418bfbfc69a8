package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/amimof/metal/api/types/v1"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func initNodeRepo(ctx context.Context, repo NodeRepository) (NodeRepository, error) {
	nodes := []*nodesv1.Node{
		{Meta: &types.Meta{Name: "bbb222"}, Hostname: "node-b", Zone: "default"},
		{Meta: &types.Meta{Name: "aaa111"}, Hostname: "node-a", Zone: "rack-a", Tags: []string{"gpu"}},
		{Meta: &types.Meta{Name: "ccc333"}, Hostname: "node-c", Zone: "rack-a"},
	}
	for _, n := range nodes {
		if err := repo.Create(ctx, n); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func TestNodeRepositories(t *testing.T) {
	repos := map[string]func(t *testing.T) NodeRepository{
		"inmem":  func(t *testing.T) NodeRepository { return NewNodeInMemRepo() },
		"badger": func(t *testing.T) NodeRepository { return NewNodeBadgerRepository(openBadger(t)) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo, err := initNodeRepo(ctx, newRepo(t))
			require.NoError(t, err)

			nodes, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, nodes, 3)
			assert.Equal(t, "aaa111", nodes[0].GetMeta().GetName(), "list should be ordered by name")
			assert.Equal(t, "ccc333", nodes[2].GetMeta().GetName())

			n, err := repo.Get(ctx, "aaa111")
			require.NoError(t, err)
			assert.Equal(t, "node-a", n.Hostname)
			assert.Equal(t, []string{"gpu"}, n.Tags)

			stale := n.Clone()
			n.Zone = "rack-b"
			n.Meta.Touch(time.Now())
			require.NoError(t, repo.Update(ctx, n))

			stale.Zone = "rack-c"
			stale.Meta.Touch(time.Now())
			assert.ErrorIs(t, repo.Update(ctx, stale), ErrConflict, "update from a stale read should conflict")
			n, err = repo.Get(ctx, "aaa111")
			require.NoError(t, err)
			assert.Equal(t, "rack-b", n.Zone)

			require.NoError(t, repo.Delete(ctx, "aaa111"))
			_, err = repo.Get(ctx, "aaa111")
			assert.ErrorIs(t, err, ErrNotFound)

			n.Meta.Touch(time.Now())
			assert.ErrorIs(t, repo.Update(ctx, n), ErrNotFound, "update should not bring back a deleted node")
		})
	}
}

func TestModify(t *testing.T) {
	repos := map[string]func(t *testing.T) NodeRepository{
		"inmem":  func(t *testing.T) NodeRepository { return NewNodeInMemRepo() },
		"badger": func(t *testing.T) NodeRepository { return NewNodeBadgerRepository(openBadger(t)) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo, err := initNodeRepo(ctx, newRepo(t))
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, err := Modify[nodesv1.Node](ctx, repo, "ccc333", func(n *nodesv1.Node) (bool, error) {
						return n.AddTag(fmt.Sprintf("tag-%02d", i)), nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			n, err := repo.Get(ctx, "ccc333")
			require.NoError(t, err)
			assert.Len(t, n.Tags, 8, "no concurrent modification should be lost")

			_, changed, err := Modify[nodesv1.Node](ctx, repo, "ccc333", func(n *nodesv1.Node) (bool, error) {
				return false, nil
			})
			require.NoError(t, err)
			assert.False(t, changed)

			_, _, err = Modify[nodesv1.Node](ctx, repo, "missing", func(n *nodesv1.Node) (bool, error) {
				return true, nil
			})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestInMemRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewZoneInMemRepo()
	zone := &zonesv1.Zone{Meta: &types.Meta{Name: "default"}, Description: "original"}
	require.NoError(t, repo.Create(ctx, zone))

	zone.Description = "mutated after create"
	got, err := repo.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Description)

	got.Description = "mutated after get"
	again, err := repo.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Description)
}

func TestPrefixesDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	db := openBadger(t)
	repos := NewBadgerRepositories(db)

	require.NoError(t, repos.Zones.Create(ctx, &zonesv1.Zone{Meta: &types.Meta{Name: "default"}}))
	require.NoError(t, repos.Nodes.Create(ctx, &nodesv1.Node{Meta: &types.Meta{Name: "abc123"}}))

	zones, err := repos.Zones.List(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 1)

	scripts, err := repos.Scripts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, scripts)
}

func TestEventRepositoryMaxItems(t *testing.T) {
	repos := map[string]func(t *testing.T) EventRepository{
		"inmem":  func(t *testing.T) EventRepository { return NewEventInMemRepo(2) },
		"badger": func(t *testing.T) EventRepository { return NewEventBadgerRepository(openBadger(t), WithMaxItems(2)) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, id := range []string{"c", "a", "b"} {
				ev := &eventsv1.Event{
					Meta: &types.Meta{Name: id, Created: base.Add(time.Duration(i) * time.Minute)},
					Type: eventsv1.EventType_NodeCreated,
				}
				require.NoError(t, repo.Create(ctx, ev))
			}

			evs, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, evs, 2)
			_, err = repo.Get(ctx, "c")
			assert.ErrorIs(t, err, ErrNotFound, "oldest event should be evicted")
		})
	}
}

func TestEventRepositoryDeleteFreesSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewEventBadgerRepository(openBadger(t), WithMaxItems(2))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newEvent := func(id string, i int) *eventsv1.Event {
		return &eventsv1.Event{
			Meta: &types.Meta{Name: id, Created: base.Add(time.Duration(i) * time.Minute)},
			Type: eventsv1.EventType_TagCreated,
		}
	}

	require.NoError(t, repo.Create(ctx, newEvent("a", 0)))
	require.NoError(t, repo.Create(ctx, newEvent("b", 1)))
	require.NoError(t, repo.Delete(ctx, "b"))
	require.NoError(t, repo.Create(ctx, newEvent("c", 2)))

	evs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	_, err = repo.Get(ctx, "a")
	assert.NoError(t, err, "deleted events should not count against the cap")
}

func TestModifyGivesUpOnConflict(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockNodeRepository(ctrl)

	repo.EXPECT().Get(gomock.Any(), "aaa111").
		DoAndReturn(func(context.Context, string) (*nodesv1.Node, error) {
			return &nodesv1.Node{Meta: &types.Meta{Name: "aaa111", Revision: 3}}, nil
		}).
		Times(maxModifyAttempts)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *nodesv1.Node) error {
			assert.Equal(t, uint64(4), n.GetMeta().GetRevision())
			return ErrConflict
		}).
		Times(maxModifyAttempts)

	_, changed, err := Modify[nodesv1.Node](ctx, repo, "aaa111", func(n *nodesv1.Node) (bool, error) {
		n.Zone = "rack-b"
		return true, nil
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, changed)
}
