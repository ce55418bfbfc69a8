// Package repository provides interfaces for implementing storage solutions for types
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amimof/metal/api/types/v1"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

var (
	ErrNotFound = errors.New("item not found")
	// ErrConflict is returned by Update when the stored item changed since it was read
	ErrConflict = errors.New("item was modified concurrently")
)

const maxModifyAttempts = 10

// Object is implemented by every stored resource. The metadata name is the storage key.
type Object[T any] interface {
	*T
	GetMeta() *types.Meta
}

// Repository is the storage contract shared by every resource type. List returns
// items ordered by name. Node repositories check revisions on Update: the item
// must carry the stored revision plus one, as left by types.Meta.Touch, or
// ErrConflict is returned.
type Repository[T any] interface {
	Create(context.Context, *T) error
	Get(context.Context, string) (*T, error)
	Delete(context.Context, string) error
	List(context.Context) ([]*T, error)
	Update(context.Context, *T) error
}

//go:generate mockgen -source=repository.go -destination=mock_node.go -package=repository NodeRepository
type NodeRepository interface {
	Repository[nodesv1.Node]
}

type TagRepository interface {
	Repository[tagsv1.Tag]
}

type ZoneRepository interface {
	Repository[zonesv1.Zone]
}

type ScriptRepository interface {
	Repository[scriptsv1.Script]
}

type ScriptSetRepository interface {
	Repository[scriptsv1.ScriptSet]
}

type ScriptResultRepository interface {
	Repository[scriptsv1.ScriptResult]
}

type EventRepository interface {
	Repository[eventsv1.Event]
}

type ConfigRepository interface {
	Repository[configsv1.Config]
}

// Repositories bundles one repository per resource type
type Repositories struct {
	Nodes         NodeRepository
	Tags          TagRepository
	Zones         ZoneRepository
	Scripts       ScriptRepository
	ScriptSets    ScriptSetRepository
	ScriptResults ScriptResultRepository
	Events        EventRepository
	Configs       ConfigRepository
}

// NewInMemRepositories returns in-memory repositories for every resource type
func NewInMemRepositories() *Repositories {
	return &Repositories{
		Nodes:         NewNodeInMemRepo(),
		Tags:          NewTagInMemRepo(),
		Zones:         NewZoneInMemRepo(),
		Scripts:       NewScriptInMemRepo(),
		ScriptSets:    NewScriptSetInMemRepo(),
		ScriptResults: NewScriptResultInMemRepo(),
		Events:        NewEventInMemRepo(),
		Configs:       NewConfigInMemRepo(),
	}
}

// Modify reads the item called name, lets fn change it and saves it. The read,
// change and save are retried while Update reports ErrConflict. fn returning
// false leaves the item untouched.
func Modify[T any, PT Object[T]](ctx context.Context, repo Repository[T], name string, fn func(PT) (bool, error)) (PT, bool, error) {
	for range maxModifyAttempts {
		obj, err := repo.Get(ctx, name)
		if err != nil {
			return nil, false, err
		}
		item := PT(obj)
		if item.GetMeta() == nil {
			return nil, false, fmt.Errorf("%s has no metadata", name)
		}
		changed, err := fn(item)
		if err != nil || !changed {
			return item, false, err
		}
		item.GetMeta().Touch(time.Now().UTC())
		err = repo.Update(ctx, obj)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return item, true, nil
	}
	return nil, false, fmt.Errorf("%s: %w", name, ErrConflict)
}
