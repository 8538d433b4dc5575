// Package querier is the read path over a loaded thread. It composes the
// range filter, implementation filter, transform pipeline, call-tree builder
// and jank detector behind one view configuration, and memoizes each stage in
// an LRU keyed by a hash of the parameters that stage depends on.
package querier

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/tracelens/pkg/calltree"
	"github.com/grafana/tracelens/pkg/filter"
	"github.com/grafana/tracelens/pkg/jank"
	"github.com/grafana/tracelens/pkg/marker"
	"github.com/grafana/tracelens/pkg/model"
	"github.com/grafana/tracelens/pkg/transform"
)

// ViewConfig is the full parameter tuple of a call-tree view. Two configs
// that hash equal produce identical results for every stage.
type ViewConfig struct {
	CommittedRanges []filter.TimeRange
	Preview         filter.PreviewSelection
	Implementation  filter.Implementation
	Transforms      []transform.Transform
	Invert          bool
	JankThreshold   float64
	MarkerSearch    string
}

// TreeView bundles the products of the thread-to-tree stages so they are
// computed and cached together.
type TreeView struct {
	Thread *model.Thread
	Tree   *calltree.Tree
	Times  calltree.NodeTimes
}

type Config struct {
	CacheSize  int
	Logger     log.Logger
	Registerer prometheus.Registerer
}

type Querier struct {
	base    *model.Thread
	logger  log.Logger
	cache   *lru.Cache[uint64, any]
	metrics *metrics
}

func New(base *model.Thread, cfg Config) (*Querier, error) {
	if base == nil {
		return nil, errors.New("querier: nil thread")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	cache, err := lru.New[uint64, any](cfg.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "querier cache")
	}
	return &Querier{
		base:    base,
		logger:  cfg.Logger,
		cache:   cache,
		metrics: newMetrics(cfg.Registerer),
	}, nil
}

// Thread returns the unfiltered base thread.
func (q *Querier) Thread() *model.Thread { return q.base }

// Filtered applies the committed ranges, the preview selection and the
// implementation filter. Transforms are not applied here; the marker and
// jank stages read this thread.
func (q *Querier) Filtered(cfg ViewConfig) *model.Thread {
	key := q.stageKey("filtered", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashString(d, string(cfg.Implementation))
	})
	return memo(q, key, "filtered", func() *model.Thread {
		th := filter.ToRange(q.base, filter.EffectiveRange(cfg.CommittedRanges, cfg.Preview))
		return filter.ByImplementation(th, cfg.Implementation)
	})
}

// Transformed is Filtered plus the transform pipeline.
func (q *Querier) Transformed(cfg ViewConfig) *model.Thread {
	key := q.stageKey("transformed", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashString(d, string(cfg.Implementation))
		hashTransforms(d, cfg.Transforms)
	})
	return memo(q, key, "transformed", func() *model.Thread {
		return transform.Apply(q.Filtered(cfg), cfg.Transforms)
	})
}

// TreeView builds the call-node tree over the transformed thread, inverted
// when the config asks for it, together with its self and running times.
func (q *Querier) TreeView(cfg ViewConfig) *TreeView {
	key := q.stageKey("tree", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashString(d, string(cfg.Implementation))
		hashTransforms(d, cfg.Transforms)
		hashBool(d, cfg.Invert)
	})
	return memo(q, key, "tree", func() *TreeView {
		th := q.Transformed(cfg)
		var tree *calltree.Tree
		if cfg.Invert {
			tree = calltree.BuildInverted(th)
		} else {
			tree = calltree.Build(th)
		}
		return &TreeView{Thread: th, Tree: tree, Times: calltree.ComputeNodeTimes(th, tree)}
	})
}

// TimingsForPath reports the sidebar timings for the call node at the given
// function path in the current view.
func (q *Querier) TimingsForPath(cfg ViewConfig, path []int32) calltree.TimingsForPath {
	key := q.stageKey("path-timings", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashString(d, string(cfg.Implementation))
		hashTransforms(d, cfg.Transforms)
		hashBool(d, cfg.Invert)
		hashPath(d, path)
	})
	return memo(q, key, "path-timings", func() calltree.TimingsForPath {
		v := q.TreeView(cfg)
		return calltree.ComputeTimingsForPath(v.Thread, v.Tree, path)
	})
}

// TracedTiming reports wall-clock node times, when the thread's weight
// semantics allow it.
func (q *Querier) TracedTiming(cfg ViewConfig) (*calltree.NodeTimes, bool) {
	v := q.TreeView(cfg)
	return calltree.ComputeTracedTiming(v.Thread, v.Tree)
}

// FlameGraph renders the current view's tree, pruned to at most maxNodes.
func (q *Querier) FlameGraph(cfg ViewConfig, maxNodes int64) *calltree.FlameGraph {
	key := q.stageKey("flamegraph", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashString(d, string(cfg.Implementation))
		hashTransforms(d, cfg.Transforms)
		hashBool(d, cfg.Invert)
		hashInt64(d, maxNodes)
	})
	return memo(q, key, "flamegraph", func() *calltree.FlameGraph {
		v := q.TreeView(cfg)
		return calltree.NewFlameGraph(v.Thread, v.Tree, v.Times, maxNodes)
	})
}

// Jank detects responsiveness stalls over the range-filtered thread. The
// implementation filter does not affect it, so only ranges key the cache.
func (q *Querier) Jank(cfg ViewConfig) []jank.Instance {
	key := q.stageKey("jank", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashFloat(d, cfg.JankThreshold)
	})
	return memo(q, key, "jank", func() []jank.Instance {
		th := filter.ToRange(q.base, filter.EffectiveRange(cfg.CommittedRanges, cfg.Preview))
		return jank.Instances(&th.Samples, th.Interval, cfg.JankThreshold)
	})
}

// Markers returns the indexes of range-filtered markers matching the search.
func (q *Querier) Markers(cfg ViewConfig) []int32 {
	key := q.stageKey("markers", func(d *xxhash.Digest) {
		hashRanges(d, cfg)
		hashString(d, cfg.MarkerSearch)
	})
	return memo(q, key, "markers", func() []int32 {
		r := filter.EffectiveRange(cfg.CommittedRanges, cfg.Preview)
		return marker.InRange(q.base, marker.FilterIndexes(q.base, cfg.MarkerSearch), r.Start, r.End)
	})
}

// memo runs compute through the querier's cache under the given key.
func memo[T any](q *Querier, key uint64, stage string, compute func() T) T {
	if v, ok := q.cache.Get(key); ok {
		q.metrics.cacheRequests.WithLabelValues(stage, "hit").Inc()
		return v.(T)
	}
	q.metrics.cacheRequests.WithLabelValues(stage, "miss").Inc()
	level.Debug(q.logger).Log("msg", "computing view stage", "stage", stage, "key", key)
	v := compute()
	q.cache.Add(key, v)
	return v
}

func (q *Querier) stageKey(stage string, hash func(d *xxhash.Digest)) uint64 {
	d := xxhash.New()
	hashString(d, stage)
	hash(d)
	return d.Sum64()
}

func hashString(d *xxhash.Digest, s string) {
	hashInt64(d, int64(len(s)))
	_, _ = d.WriteString(s)
}

func hashFloat(d *xxhash.Digest, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	_, _ = d.Write(buf[:])
}

func hashInt64(d *xxhash.Digest, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = d.Write(buf[:])
}

func hashBool(d *xxhash.Digest, b bool) {
	if b {
		hashInt64(d, 1)
	} else {
		hashInt64(d, 0)
	}
}

func hashPath(d *xxhash.Digest, path []int32) {
	hashInt64(d, int64(len(path)))
	for _, fn := range path {
		hashInt64(d, int64(fn))
	}
}

func hashRanges(d *xxhash.Digest, cfg ViewConfig) {
	hashInt64(d, int64(len(cfg.CommittedRanges)))
	for _, r := range cfg.CommittedRanges {
		hashFloat(d, r.Start)
		hashFloat(d, r.End)
	}
	hashBool(d, cfg.Preview.HasSelection)
	if cfg.Preview.HasSelection {
		hashFloat(d, cfg.Preview.SelectionStart)
		hashFloat(d, cfg.Preview.SelectionEnd)
	}
}

func hashTransforms(d *xxhash.Digest, transforms []transform.Transform) {
	hashInt64(d, int64(len(transforms)))
	for _, tr := range transforms {
		hashString(d, tr.String())
	}
}
