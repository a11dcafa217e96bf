package pipeline

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/modelsearch/internal/domain/filter"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

// Memo caches the last pipeline run keyed by the raw result generation and
// a fingerprint of the filter state.
type Memo struct {
	mu          sync.Mutex
	valid       bool
	generation  uint64
	fingerprint uint64
	view        View

	runsTotal *prometheus.CounterVec
	duration  prometheus.Observer
}

// NewMemo creates a memoized pipeline. runsTotal is a counter vec with label
// "result" ("computed"/"memoized"); both collectors may be nil.
func NewMemo(runsTotal *prometheus.CounterVec, duration prometheus.Observer) *Memo {
	return &Memo{runsTotal: runsTotal, duration: duration}
}

// Run returns the view for (raw, st). generation must change whenever raw does.
func (m *Memo) Run(generation uint64, raw []item.Item, st filter.State) View {
	fp := Fingerprint(st)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.generation == generation && m.fingerprint == fp {
		m.inc("memoized")
		return m.view.clone()
	}

	start := time.Now()
	m.view = Run(raw, st)
	if m.duration != nil {
		m.duration.Observe(time.Since(start).Seconds())
	}
	m.generation, m.fingerprint, m.valid = generation, fp, true
	m.inc("computed")
	return m.view.clone()
}

// clone copies the slices a caller could reorder or overwrite, so the cached
// view stays intact across snapshots.
func (v View) clone() View {
	out := View{Items: slices.Clone(v.Items)}
	if v.Groups != nil {
		out.Groups = make([]GroupView, len(v.Groups))
		for i, g := range v.Groups {
			g.Stats.RepresentativeTags = slices.Clone(g.Stats.RepresentativeTags)
			out.Groups[i] = g
		}
	}
	return out
}

// Invalidate drops the cached view.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.valid = false
	m.view = View{}
	m.mu.Unlock()
}

func (m *Memo) inc(result string) {
	if m.runsTotal != nil {
		m.runsTotal.WithLabelValues(result).Inc()
	}
}

// Fingerprint hashes every field of st. Selected tags are hashed in
// selection order; reordering yields a different key but the same view.
func Fingerprint(st filter.State) uint64 {
	d := xxhash.New()
	for _, t := range st.SelectedTags() {
		_, _ = d.WriteString(t)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write([]byte{1})
	r := st.Downloads()
	_, _ = d.WriteString(strconv.FormatInt(r.Low, 10))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(strconv.FormatInt(r.High, 10))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(string(st.Sort()))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(strconv.Itoa(st.Limit()))
	return d.Sum64()
}
