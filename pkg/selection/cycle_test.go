package selection

import (
	"reflect"
	"testing"
)

// TestCycle verifies the preset sequence CountsOn -> ChannelsOn -> AllOn -> CountsOn
func TestCycle(t *testing.T) {
	s := New(testRegion(2, 2))

	type flags struct {
		counts   bool
		channels []int
		extended []int
	}
	snapshot := func() flags {
		return flags{s.CountsEnabled(), s.SelectedChannels(), s.SelectedExtended()}
	}

	steps := []struct {
		state CycleState
		want  flags
	}{
		{ChannelsOn, flags{false, []int{1, 2}, nil}},
		{AllOn, flags{true, []int{1, 2}, []int{1, 2}}},
		{CountsOn, flags{true, []int{1, 2}, nil}},
		{ChannelsOn, flags{false, []int{1, 2}, nil}},
	}

	for i, step := range steps {
		s.Cycle()
		if s.CycleState() != step.state {
			t.Fatalf("step %d: expected state %s, got %s", i, step.state, s.CycleState())
		}
		if got := snapshot(); !reflect.DeepEqual(got, step.want) {
			t.Errorf("step %d: expected %+v, got %+v", i, step.want, got)
		}
	}
}

// TestCycleRestoresChannelsAfterManualEdits verifies that leaving AllOn turns
// every channel_counts column back on even if some were switched off
func TestCycleRestoresChannelsAfterManualEdits(t *testing.T) {
	r := testRegion(3, 1)
	s := New(r)
	s.Cycle()
	s.Cycle()
	if err := s.Toggle(Channel(2)); err != nil {
		t.Fatal(err)
	}

	s.Cycle()
	if got := s.SelectedChannels(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected all channels on, got %v", got)
	}
	if !reflect.DeepEqual(r.Counts, expectedSum(r, []int{1, 2, 3})) {
		t.Errorf("counts not recomputed: %v", r.Counts)
	}
}

// TestForceAllOff verifies every flag is cleared and the cycle moves to ChannelsOn
func TestForceAllOff(t *testing.T) {
	r := testRegion(2, 2)
	s := New(r)
	s.SetAll(true, nil)

	s.ForceAllOff()

	if s.CountsEnabled() || len(s.SelectedChannels()) != 0 || len(s.SelectedExtended()) != 0 {
		t.Errorf("expected every flag off, got %s", s)
	}
	if s.CycleState() != ChannelsOn {
		t.Errorf("expected state %s, got %s", ChannelsOn, s.CycleState())
	}
	for i, v := range r.Counts {
		if v != 0 {
			t.Errorf("counts[%d] = %v, expected 0", i, v)
		}
	}
}

// TestForceCountsOnly verifies counts and channels come on while extended
// channels keep their flags
func TestForceCountsOnly(t *testing.T) {
	s := New(testRegion(2, 2))
	s.ForceAllOff()
	if err := s.Toggle(Extended(1)); err != nil {
		t.Fatal(err)
	}

	s.ForceCountsOnly()

	if !s.CountsEnabled() {
		t.Error("expected counts on")
	}
	if got := s.SelectedChannels(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected channels [1 2], got %v", got)
	}
	if got := s.SelectedExtended(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected extended [1], got %v", got)
	}
	if s.CycleState() != CountsOn {
		t.Errorf("expected state %s, got %s", CountsOn, s.CycleState())
	}
}
