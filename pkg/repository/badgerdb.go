package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

var tracer = otel.GetTracerProvider().Tracer("metal-server")

// Key prefixes. Keys are stored as <prefix>:<name>.
const (
	nodePrefix         = "node"
	tagPrefix          = "tag"
	zonePrefix         = "zone"
	scriptPrefix       = "script"
	scriptSetPrefix    = "scriptset"
	scriptResultPrefix = "scriptresult"
	eventPrefix        = "event"
	configPrefix       = "config"

	// indexSuffix marks the creation time index kept by capped repositories
	indexSuffix = "-idx"
)

type ID struct {
	Prefix string
	Name   string
}

func (i ID) String() string {
	return fmt.Sprintf("%s:%s", i.Prefix, i.Name)
}

type NewBadgerRepositoryOption func(*badgerOptions)

type badgerOptions struct {
	maxItems int
}

// WithMaxItems caps the number of stored items. The oldest item by creation
// time is evicted when the cap is reached.
func WithMaxItems(max int) NewBadgerRepositoryOption {
	return func(o *badgerOptions) {
		o.maxItems = max
	}
}

type badgerRepo[T any, PT Object[T]] struct {
	db            *badger.DB
	prefix        string
	maxItems      int
	checkRevision bool
}

func newBadgerRepo[T any, PT Object[T]](db *badger.DB, prefix string, opts ...NewBadgerRepositoryOption) *badgerRepo[T, PT] {
	o := &badgerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return &badgerRepo[T, PT]{
		db:       db,
		prefix:   prefix,
		maxItems: o.maxItems,
	}
}

func (r *badgerRepo[T, PT]) key(name string) []byte {
	return []byte(ID{Prefix: r.prefix, Name: name}.String())
}

// indexKey orders items of a capped repository by creation time
func (r *badgerRepo[T, PT]) indexKey(obj PT) []byte {
	nanos := obj.GetMeta().GetCreated().UnixNano()
	if obj.GetMeta().GetCreated().IsZero() || nanos < 0 {
		nanos = 0
	}
	return []byte(fmt.Sprintf("%s%s:%020d:%s", r.prefix, indexSuffix, nanos, obj.GetMeta().GetName()))
}

func (r *badgerRepo[T, PT]) indexPrefix() []byte {
	return []byte(r.prefix + indexSuffix + ":")
}

func (r *badgerRepo[T, PT]) startSpan(ctx context.Context, op string, id string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("repo.%s.%s", r.prefix, op))
	span.SetAttributes(
		attribute.String("service", "Database"),
		attribute.String("provider", "badger"),
	)
	if id != "" {
		span.SetAttributes(attribute.String(r.prefix+".id", id))
	}
	return ctx, span
}

func (r *badgerRepo[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	_, span := r.startSpan(ctx, "Get", id)
	defer span.End()

	res := PT(new(T))
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.key(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, res)
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res, nil
}

func (r *badgerRepo[T, PT]) List(ctx context.Context) ([]*T, error) {
	_, span := r.startSpan(ctx, "List", "")
	defer span.End()

	var result []*T
	prefix := []byte(r.prefix + ":")
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			obj := PT(new(T))
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, obj)
			})
			if err != nil {
				return err
			}
			result = append(result, obj)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

func (r *badgerRepo[T, PT]) Create(ctx context.Context, obj *T) error {
	ctx, span := r.startSpan(ctx, "Create", PT(obj).GetMeta().GetName())
	defer span.End()

	if err := r.evict(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return r.set(txn, obj)
	})
}

func (r *badgerRepo[T, PT]) set(txn *badger.Txn, obj *T) error {
	name := PT(obj).GetMeta().GetName()
	if name == "" {
		return fmt.Errorf("%s has no name", r.prefix)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := txn.Set(r.key(name), b); err != nil {
		return err
	}
	if r.maxItems > 0 {
		return txn.Set(r.indexKey(PT(obj)), nil)
	}
	return nil
}

// evict removes the oldest items so that one more fits under maxItems. Only
// index keys are read, values are never fetched.
func (r *badgerRepo[T, PT]) evict(ctx context.Context) error {
	if r.maxItems <= 0 {
		return nil
	}
	_, span := r.startSpan(ctx, "Evict", "")
	defer span.End()

	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = r.indexPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) < r.maxItems {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys[:len(keys)-r.maxItems+1] {
			parts := strings.SplitN(string(k), ":", 3)
			if len(parts) == 3 {
				if err := txn.Delete(r.key(parts[2])); err != nil {
					return err
				}
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *badgerRepo[T, PT]) Delete(ctx context.Context, id string) error {
	_, span := r.startSpan(ctx, "Delete", id)
	defer span.End()

	return r.db.Update(func(txn *badger.Txn) error {
		if r.maxItems > 0 {
			stored, err := r.read(txn, id)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if stored != nil {
				if err := txn.Delete(r.indexKey(stored)); err != nil {
					return err
				}
			}
		}
		return txn.Delete(r.key(id))
	})
}

func (r *badgerRepo[T, PT]) read(txn *badger.Txn, id string) (PT, error) {
	item, err := txn.Get(r.key(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res := PT(new(T))
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *badgerRepo[T, PT]) Update(ctx context.Context, obj *T) error {
	_, span := r.startSpan(ctx, "Update", PT(obj).GetMeta().GetName())
	defer span.End()

	err := r.db.Update(func(txn *badger.Txn) error {
		if r.checkRevision {
			stored, err := r.read(txn, PT(obj).GetMeta().GetName())
			if err != nil {
				return err
			}
			if stored.GetMeta().GetRevision()+1 != PT(obj).GetMeta().GetRevision() {
				return ErrConflict
			}
		}
		return r.set(txn, obj)
	})
	if errors.Is(err, badger.ErrConflict) {
		err = ErrConflict
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func NewNodeBadgerRepository(db *badger.DB) NodeRepository {
	r := newBadgerRepo[nodesv1.Node](db, nodePrefix)
	r.checkRevision = true
	return r
}

func NewTagBadgerRepository(db *badger.DB) TagRepository {
	return newBadgerRepo[tagsv1.Tag](db, tagPrefix)
}

func NewZoneBadgerRepository(db *badger.DB) ZoneRepository {
	return newBadgerRepo[zonesv1.Zone](db, zonePrefix)
}

func NewScriptBadgerRepository(db *badger.DB) ScriptRepository {
	return newBadgerRepo[scriptsv1.Script](db, scriptPrefix)
}

func NewScriptSetBadgerRepository(db *badger.DB) ScriptSetRepository {
	return newBadgerRepo[scriptsv1.ScriptSet](db, scriptSetPrefix)
}

func NewScriptResultBadgerRepository(db *badger.DB) ScriptResultRepository {
	return newBadgerRepo[scriptsv1.ScriptResult](db, scriptResultPrefix)
}

func NewEventBadgerRepository(db *badger.DB, opts ...NewBadgerRepositoryOption) EventRepository {
	return newBadgerRepo[eventsv1.Event](db, eventPrefix, opts...)
}

func NewConfigBadgerRepository(db *badger.DB) ConfigRepository {
	return newBadgerRepo[configsv1.Config](db, configPrefix)
}

// NewBadgerRepositories returns badger backed repositories for every resource type
func NewBadgerRepositories(db *badger.DB, opts ...NewBadgerRepositoryOption) *Repositories {
	return &Repositories{
		Nodes:         NewNodeBadgerRepository(db),
		Tags:          NewTagBadgerRepository(db),
		Zones:         NewZoneBadgerRepository(db),
		Scripts:       NewScriptBadgerRepository(db),
		ScriptSets:    NewScriptSetBadgerRepository(db),
		ScriptResults: NewScriptResultBadgerRepository(db),
		Events:        NewEventBadgerRepository(db, opts...),
		Configs:       NewConfigBadgerRepository(db),
	}
}
