package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

// inMemRepo keeps encoded copies of each item so callers never share
// memory with the store.
type inMemRepo[T any, PT Object[T]] struct {
	mu            sync.RWMutex
	items         map[string][]byte
	maxItems      int
	checkRevision bool
}

func newInMemRepo[T any, PT Object[T]](maxItems int) *inMemRepo[T, PT] {
	return &inMemRepo[T, PT]{
		items:    make(map[string][]byte),
		maxItems: maxItems,
	}
}

func (i *inMemRepo[T, PT]) decode(b []byte) (*T, error) {
	obj := PT(new(T))
	if err := json.Unmarshal(b, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (i *inMemRepo[T, PT]) List(ctx context.Context) ([]*T, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	keys := make([]string, 0, len(i.items))
	for k := range i.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	res := make([]*T, 0, len(keys))
	for _, k := range keys {
		obj, err := i.decode(i.items[k])
		if err != nil {
			return nil, err
		}
		res = append(res, obj)
	}
	return res, nil
}

func (i *inMemRepo[T, PT]) Get(ctx context.Context, key string) (*T, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	b, ok := i.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return i.decode(b)
}

func (i *inMemRepo[T, PT]) Create(ctx context.Context, obj *T) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.maxItems > 0 && len(i.items) >= i.maxItems {
		i.evictLocked(len(i.items) - i.maxItems + 1)
	}
	return i.setLocked(obj)
}

func (i *inMemRepo[T, PT]) setLocked(obj *T) error {
	name := PT(obj).GetMeta().GetName()
	if name == "" {
		return fmt.Errorf("%T has no name", obj)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	i.items[name] = b
	return nil
}

func (i *inMemRepo[T, PT]) evictLocked(n int) {
	type aged struct {
		key string
		obj PT
	}
	all := make([]aged, 0, len(i.items))
	for k, b := range i.items {
		obj, err := i.decode(b)
		if err != nil {
			continue
		}
		all = append(all, aged{key: k, obj: obj})
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].obj.GetMeta().GetCreated().Before(all[b].obj.GetMeta().GetCreated())
	})
	for j := 0; j < n && j < len(all); j++ {
		delete(i.items, all[j].key)
	}
}

func (i *inMemRepo[T, PT]) Delete(ctx context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.items, key)
	return nil
}

func (i *inMemRepo[T, PT]) Update(ctx context.Context, obj *T) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.checkRevision {
		b, ok := i.items[PT(obj).GetMeta().GetName()]
		if !ok {
			return ErrNotFound
		}
		stored, err := i.decode(b)
		if err != nil {
			return err
		}
		if PT(stored).GetMeta().GetRevision()+1 != PT(obj).GetMeta().GetRevision() {
			return ErrConflict
		}
	}
	return i.setLocked(obj)
}

func NewNodeInMemRepo() NodeRepository {
	r := newInMemRepo[nodesv1.Node](0)
	r.checkRevision = true
	return r
}

func NewTagInMemRepo() TagRepository {
	return newInMemRepo[tagsv1.Tag](0)
}

func NewZoneInMemRepo() ZoneRepository {
	return newInMemRepo[zonesv1.Zone](0)
}

func NewScriptInMemRepo() ScriptRepository {
	return newInMemRepo[scriptsv1.Script](0)
}

func NewScriptSetInMemRepo() ScriptSetRepository {
	return newInMemRepo[scriptsv1.ScriptSet](0)
}

func NewScriptResultInMemRepo() ScriptResultRepository {
	return newInMemRepo[scriptsv1.ScriptResult](0)
}

// NewEventInMemRepo keeps at most maxItems events when maxItems is positive
func NewEventInMemRepo(maxItems ...int) EventRepository {
	max := 0
	if len(maxItems) > 0 {
		max = maxItems[0]
	}
	return newInMemRepo[eventsv1.Event](max)
}

func NewConfigInMemRepo() ConfigRepository {
	return newInMemRepo[configsv1.Config](0)
}
