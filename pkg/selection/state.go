// Package selection tracks which signals of a region are switched on and keeps
// the region's aggregate counts in step with the selected raw channels.
package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"sinspect/internal/models"
)

// Listener is called after a mutation has been applied and the aggregate counts
// recomputed.
type Listener func(s *State)

// State is the selection state of one region. It is not safe for concurrent
// use; callers sharing a State across goroutines must serialize access.
type State struct {
	region *models.Region

	counts   bool
	channels [models.MaxChannels]bool
	extended [models.MaxChannels]bool

	cycle CycleState

	listeners []Listener
}

// New creates the selection state of a region: counts and every channel_counts
// column on, extended channels off, cycle state CountsOn. The region's counts
// are left as loaded until a channel_counts flag changes.
func New(region *models.Region) *State {
	s := &State{
		region: region,
		counts: true,
		cycle:  CountsOn,
	}
	for i := 0; i < region.ChannelCounts.Count(); i++ {
		s.channels[i] = true
	}
	return s
}

// Region returns the region this state belongs to.
func (s *State) Region() *models.Region { return s.region }

// OnChange registers a listener fired once per mutation.
func (s *State) OnChange(fn Listener) {
	s.listeners = append(s.listeners, fn)
}

// Has reports whether id addresses a signal present in the region.
func (s *State) Has(id ID) bool {
	switch id.Kind {
	case Counts:
		return id.Index == 0
	case ChannelCounts:
		return id.Index >= 1 && id.Index <= s.region.ChannelCounts.Count()
	case ExtendedChannels:
		return id.Index >= 1 && id.Index <= s.region.ExtendedChannels.Count()
	}
	return false
}

// Get returns the flag of id.
func (s *State) Get(id ID) bool {
	if !s.Has(id) {
		return false
	}
	switch id.Kind {
	case ChannelCounts:
		return s.channels[id.Index-1]
	case ExtendedChannels:
		return s.extended[id.Index-1]
	default:
		return s.counts
	}
}

// Toggle flips the flag of id.
func (s *State) Toggle(id ID) error {
	if !s.Has(id) {
		return fmt.Errorf("region %q has no channel %s", s.region.Name, id)
	}
	return s.Set(id, !s.Get(id))
}

// Set sets the flag of id. Changing a channel_counts flag recomputes the
// aggregate counts before listeners run.
func (s *State) Set(id ID, v bool) error {
	if !s.Has(id) {
		return fmt.Errorf("region %q has no channel %s", s.region.Name, id)
	}
	var c change
	c.add(id, s.set(id, v))
	s.commit(c)
	return nil
}

// SetAll sets every flag matching pred to value.
func (s *State) SetAll(value bool, pred func(ID) bool) {
	var c change
	for _, id := range s.IDs() {
		if pred == nil || pred(id) {
			c.add(id, s.set(id, value))
		}
	}
	s.commit(c)
}

// Apply copies flags from a state mapping such as one returned by States.
// Identifiers that are malformed or absent from this region are ignored.
func (s *State) Apply(states map[string]bool) {
	var c change
	for name, v := range states {
		id, err := ParseID(name)
		if err != nil || !s.Has(id) {
			continue
		}
		c.add(id, s.set(id, v))
	}
	s.commit(c)
}

// Refresh notifies listeners without changing any flag. Use it when something
// outside the selection, such as the normalization reference, invalidates
// displayed values.
func (s *State) Refresh() {
	s.commit(change{any: true})
}

// CountsEnabled reports whether the aggregate counts signal is on.
func (s *State) CountsEnabled() bool { return s.counts }

// ChannelStates returns the channel_counts flags keyed by identifier.
func (s *State) ChannelStates() map[string]bool {
	out := make(map[string]bool, s.region.ChannelCounts.Count())
	for i := 1; i <= s.region.ChannelCounts.Count(); i++ {
		out[Channel(i).String()] = s.channels[i-1]
	}
	return out
}

// ExtendedStates returns the extended_channels flags keyed by identifier.
func (s *State) ExtendedStates() map[string]bool {
	out := make(map[string]bool, s.region.ExtendedChannels.Count())
	for i := 1; i <= s.region.ExtendedChannels.Count(); i++ {
		out[Extended(i).String()] = s.extended[i-1]
	}
	return out
}

// States returns every flag of the region keyed by identifier.
func (s *State) States() map[string]bool {
	out := map[string]bool{countsName: s.counts}
	for k, v := range s.ChannelStates() {
		out[k] = v
	}
	for k, v := range s.ExtendedStates() {
		out[k] = v
	}
	return out
}

// IDs returns every identifier present in the region: counts, then channel
// counts and extended channels in ascending order.
func (s *State) IDs() []ID {
	ids := []ID{CountsID}
	for i := 1; i <= s.region.ChannelCounts.Count(); i++ {
		ids = append(ids, Channel(i))
	}
	for i := 1; i <= s.region.ExtendedChannels.Count(); i++ {
		ids = append(ids, Extended(i))
	}
	return ids
}

// SelectedChannels returns the 1-based indices of the selected channel_counts
// columns in ascending order.
func (s *State) SelectedChannels() []int {
	return selected(s.channels[:s.region.ChannelCounts.Count()])
}

// SelectedExtended returns the 1-based indices of the selected extended
// channels in ascending order.
func (s *State) SelectedExtended() []int {
	return selected(s.extended[:s.region.ExtendedChannels.Count()])
}

func selected(flags []bool) []int {
	var out []int
	for i, on := range flags {
		if on {
			out = append(out, i+1)
		}
	}
	return out
}

// CountsLabel joins the contributing channel indices, e.g. "1+2+4".
func (s *State) CountsLabel() string {
	idx := s.SelectedChannels()
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "+")
}

// ComputeCounts returns the elementwise sum of the selected channel_counts
// columns; an empty selection sums to zeros.
func (s *State) ComputeCounts() []float64 {
	sum := make([]float64, s.region.Len())
	data := s.region.ChannelCounts.Data
	if data == nil {
		return sum
	}
	col := make([]float64, len(sum))
	for _, i := range s.SelectedChannels() {
		mat.Col(col, i-1, data)
		floats.Add(sum, col)
	}
	return sum
}

// Counts returns the region's current aggregate counts.
func (s *State) Counts() []float64 { return s.region.Counts }

// Indicator returns "*" when counts is on with every channel contributing, "+"
// when counts is on with a partial contribution and " " when counts is off.
func (s *State) Indicator() string {
	if !s.counts {
		return " "
	}
	for _, on := range s.channels[:s.region.ChannelCounts.Count()] {
		if !on {
			return "+"
		}
	}
	return "*"
}

// Label returns the display label of the region: indicator, name and an
// "(empty)" suffix for regions without channel_counts columns.
func (s *State) Label() string {
	label := s.Indicator() + " " + s.region.Name
	if s.region.ChannelCounts.Empty {
		label += " (empty)"
	}
	return label
}

// ToggleAllChannelCounts turns every channel_counts flag off when all are on,
// otherwise turns them all on.
func (s *State) ToggleAllChannelCounts() {
	s.SetAll(!allOn(s.channels[:s.region.ChannelCounts.Count()]), isKind(ChannelCounts))
}

// ToggleAllExtended turns every extended channel flag off when all are on,
// otherwise turns them all on.
func (s *State) ToggleAllExtended() {
	s.SetAll(!allOn(s.extended[:s.region.ExtendedChannels.Count()]), isKind(ExtendedChannels))
}

func allOn(flags []bool) bool {
	if len(flags) == 0 {
		return false
	}
	for _, on := range flags {
		if !on {
			return false
		}
	}
	return true
}

func isKind(k Kind) func(ID) bool {
	return func(id ID) bool { return id.Kind == k }
}

// String renders the flags in identifier order, for logs.
func (s *State) String() string {
	states := s.States()
	keys := make([]string, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%t", k, states[k])
	}
	return b.String()
}

// change records what a mutation touched.
type change struct {
	channels bool
	any      bool
}

func (c *change) add(id ID, changed bool) {
	if !changed {
		return
	}
	c.any = true
	if id.Kind == ChannelCounts {
		c.channels = true
	}
}

// set stores a flag without side effects and reports whether it changed.
func (s *State) set(id ID, v bool) bool {
	var p *bool
	switch id.Kind {
	case Counts:
		p = &s.counts
	case ChannelCounts:
		p = &s.channels[id.Index-1]
	case ExtendedChannels:
		p = &s.extended[id.Index-1]
	default:
		return false
	}
	if *p == v {
		return false
	}
	*p = v
	return true
}

// commit is the single recompute-and-notify point run once per mutation. The
// counts are recomputed before any listener can observe the new state.
func (s *State) commit(c change) {
	if !c.any {
		return
	}
	if c.channels {
		s.region.Counts = s.ComputeCounts()
	}
	for _, fn := range s.listeners {
		fn(s)
	}
}
