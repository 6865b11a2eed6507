package store

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/entry"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("store: entry not found")

// Persistence defines the persistence contract for journal entries.
type Persistence interface {
	ListAll(ctx context.Context) []*entry.Entry
	List(ctx context.Context, collection string) []*entry.Entry
	Get(ctx context.Context, id string) (*entry.Entry, error)
	Collections(ctx context.Context) []string
	Store(e *entry.Entry) error
	Delete(e *entry.Entry) error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Option configures the persistence returned by Load.
type Option func(*persistence)

// WithLogger reports unreadable entries and watcher trouble to log.
func WithLogger(log *zap.Logger) Option {
	return func(p *persistence) {
		if log != nil {
			p.log = log
		}
	}
}

// Load creates a Persistence backed by diskv using the provided config.
func Load(cfg Config, opts ...Option) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	p := &persistence{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: basePath,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
	log      *zap.Logger
}

func (p *persistence) read(key string) (*entry.Entry, error) {
	val, err := p.d.Read(key)
	if err != nil {
		return nil, err
	}
	e := &entry.Entry{}
	if err := json.Unmarshal(val, e); err != nil {
		return nil, err
	}
	pk := keyToPathTransform(key)
	e.ID = pk.FileName
	return e, nil
}

func (p *persistence) scan(ctx context.Context, match func(*diskv.PathKey) bool) []*entry.Entry {
	all := make([]*entry.Entry, 0)
	for key := range p.d.Keys(ctx.Done()) {
		if match != nil && !match(keyToPathTransform(key)) {
			continue
		}
		e, err := p.read(key)
		if err != nil {
			p.log.Warn("skipping unreadable entry", zap.String("key", key), zap.Error(err))
			continue
		}
		all = append(all, e)
	}
	sortEntries(all)
	return all
}

func (p *persistence) ListAll(ctx context.Context) []*entry.Entry {
	return p.scan(ctx, nil)
}

func (p *persistence) List(ctx context.Context, collection string) []*entry.Entry {
	ck := toCollection(collection)
	return p.scan(ctx, func(pk *diskv.PathKey) bool {
		return pk.Path[0] == ck
	})
}

func (p *persistence) Get(ctx context.Context, id string) (*entry.Entry, error) {
	found := p.scan(ctx, func(pk *diskv.PathKey) bool {
		return pk.FileName == id
	})
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found[0], nil
}

func (p *persistence) Store(e *entry.Entry) error {
	if strings.TrimSpace(e.Collection) == "" {
		return errors.New("store: collection name required")
	}
	if e.ID == "" {
		e.ID = entry.NewID()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", e.ID, err)
	}
	if err := p.d.Write(toKey(e), data); err != nil {
		return fmt.Errorf("store: write %s: %w", e.ID, err)
	}
	return nil
}

func (p *persistence) Delete(e *entry.Entry) error {
	if err := p.d.Erase(toKey(e)); err != nil {
		return fmt.Errorf("store: erase %s: %w", e.ID, err)
	}
	return nil
}

func (p *persistence) Collections(ctx context.Context) []string {
	seen := make(map[string]struct{})
	for key := range p.d.Keys(ctx.Done()) {
		pk := keyToPathTransform(key)
		seen[fromCollection(pk.Path[0])] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const layoutISO = "2006-01-02"

func sortEntries(entries []*entry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		lt := entries[i].Created.Time
		rt := entries[j].Created.Time
		if lt.Equal(rt) {
			return entries[i].ID < entries[j].ID
		}
		return lt.Before(rt)
	})
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `collection-date-id`
func toKey(e *entry.Entry) string {
	then := e.Created.UTC().Format(layoutISO)
	return fmt.Sprintf("%s-%s-%s", toCollection(e.Collection), then, e.ID)
}

// Collection names are base32 so they never contain a path separator or the
// key separator.
var collectionEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func toCollection(s string) string {
	return collectionEncoding.EncodeToString([]byte(s))
}

func fromCollection(s string) string {
	collection, err := collectionEncoding.DecodeString(s)
	if err != nil {
		return fmt.Sprintf("fromCollection: %s", err)
	}
	return string(collection)
}
