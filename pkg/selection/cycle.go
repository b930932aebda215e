package selection

// CycleState is the position of a region in the selection preset cycle
type CycleState int

const (
	// CountsOn has counts and every channel_counts column on
	CountsOn CycleState = iota
	// ChannelsOn has every channel_counts column on and counts off
	ChannelsOn
	// AllOn has every signal on
	AllOn
)

func (c CycleState) String() string {
	switch c {
	case CountsOn:
		return "counts_on"
	case ChannelsOn:
		return "channels_on"
	case AllOn:
		return "all_on"
	default:
		return "unknown"
	}
}

// CycleState returns the current cycle position.
func (s *State) CycleState() CycleState { return s.cycle }

// Cycle advances the preset cycle CountsOn -> ChannelsOn -> AllOn -> CountsOn.
func (s *State) Cycle() {
	var c change
	switch s.cycle {
	case CountsOn:
		s.setKind(&c, ChannelCounts, true)
		c.add(CountsID, s.set(CountsID, false))
		s.cycle = ChannelsOn
	case ChannelsOn:
		for _, id := range s.IDs() {
			c.add(id, s.set(id, true))
		}
		s.cycle = AllOn
	default:
		for _, id := range s.IDs() {
			c.add(id, s.set(id, false))
		}
		s.setKind(&c, ChannelCounts, true)
		c.add(CountsID, s.set(CountsID, true))
		s.cycle = CountsOn
	}
	s.commit(c)
}

// ForceAllOff turns every flag off and resets the cycle to ChannelsOn.
func (s *State) ForceAllOff() {
	var c change
	for _, id := range s.IDs() {
		c.add(id, s.set(id, false))
	}
	s.cycle = ChannelsOn
	s.commit(c)
}

// ForceCountsOnly turns counts and every channel_counts column on and resets
// the cycle to CountsOn. Extended channels are left as they are.
func (s *State) ForceCountsOnly() {
	var c change
	s.setKind(&c, ChannelCounts, true)
	c.add(CountsID, s.set(CountsID, true))
	s.cycle = CountsOn
	s.commit(c)
}

func (s *State) setKind(c *change, k Kind, v bool) {
	for _, id := range s.IDs() {
		if id.Kind == k {
			c.add(id, s.set(id, v))
		}
	}
}
