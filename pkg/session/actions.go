package session

import (
	"fmt"

	"sinspect/internal/models"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
)

// CountsAction is applied to the counts flag of several regions at once
type CountsAction int

const (
	ToggleCounts CountsAction = iota
	SelectCounts
	DeselectCounts
)

// SetSingleReference selects extended channel i (1-9) as the single
// normalisation reference; 0 clears it.
func (s *Session) SetSingleReference(i int) error {
	if i < 0 || i > models.MaxChannels {
		return fmt.Errorf("reference channel %d out of range 0-%d", i, models.MaxChannels)
	}
	return s.mutate(func() error {
		s.refs.single = i
		s.refreshAll()
		return nil
	})
}

// ClearSingleReference turns single normalisation off.
func (s *Session) ClearSingleReference() error {
	return s.SetSingleReference(0)
}

// SingleReference returns the single normalisation channel, 0 when unset.
func (s *Session) SingleReference() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refs.single
}

// SetNormalizationReference makes the region at ref the double normalisation
// reference.
func (s *Session) SetNormalizationReference(ref models.RegionRef) error {
	return s.mutate(func() error {
		if _, err := s.region(ref); err != nil {
			return err
		}
		r := ref
		s.refs.double = &r
		s.refreshAll()
		return nil
	})
}

// ClearNormalizationReference turns double normalisation off.
func (s *Session) ClearNormalizationReference() error {
	return s.mutate(func() error {
		s.refs.double = nil
		s.refreshAll()
		return nil
	})
}

// NormalizationReference returns the double normalisation reference region.
func (s *Session) NormalizationReference() (models.RegionRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refs.double == nil {
		return models.RegionRef{}, false
	}
	return *s.refs.double, true
}

// SetReferenceSelectors sets the numerator selector and the denominator
// extended channel used on the double normalisation reference.
func (s *Session) SetReferenceSelectors(numerator normalization.Selector, denominator int) error {
	if !numerator.Counts && (numerator.Channel < 1 || numerator.Channel > models.MaxChannels) {
		return fmt.Errorf("numerator channel %d out of range 1-%d", numerator.Channel, models.MaxChannels)
	}
	if denominator < 1 || denominator > models.MaxChannels {
		return fmt.Errorf("denominator channel %d out of range 1-%d", denominator, models.MaxChannels)
	}
	return s.mutate(func() error {
		s.refs.numerator = numerator
		s.refs.denominator = denominator
		if s.refs.double != nil {
			s.refreshAll()
		}
		return nil
	})
}

// ReferenceSelectors returns the numerator selector and denominator channel.
func (s *Session) ReferenceSelectors() (normalization.Selector, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refs.numerator, s.refs.denominator
}

// refreshAll notifies every selection that displayed values are stale.
func (s *Session) refreshAll() {
	for _, g := range s.selections {
		for _, st := range g {
			st.Refresh()
		}
	}
}

// Toggle flips one flag of one region.
func (s *Session) Toggle(ref models.RegionRef, id selection.ID) error {
	return s.mutate(func() error {
		sel, err := s.selection(ref)
		if err != nil {
			return err
		}
		return sel.Toggle(id)
	})
}

// Set sets one flag of one region.
func (s *Session) Set(ref models.RegionRef, id selection.ID, v bool) error {
	return s.mutate(func() error {
		sel, err := s.selection(ref)
		if err != nil {
			return err
		}
		return sel.Set(id, v)
	})
}

// GroupRefs returns references to every region of group g.
func (s *Session) GroupRefs(g int) ([]models.RegionRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupRefs(g)
}

func (s *Session) groupRefs(g int) ([]models.RegionRef, error) {
	if s.file == nil {
		return nil, ErrNoFile
	}
	if g < 0 || g >= len(s.file.Groups) {
		return nil, fmt.Errorf("no group at index %d", g)
	}
	refs := make([]models.RegionRef, len(s.file.Groups[g].Regions))
	for i := range refs {
		refs[i] = models.RegionRef{Group: g, Region: i}
	}
	return refs, nil
}

// ToggleGroup switches a whole group: if any region of the group has counts
// on, every region is forced all off; otherwise every region is forced to
// counts only.
func (s *Session) ToggleGroup(g int) error {
	return s.mutate(func() error {
		refs, err := s.groupRefs(g)
		if err != nil {
			return err
		}
		anyOn := false
		for _, ref := range refs {
			if s.selections[ref.Group][ref.Region].CountsEnabled() {
				anyOn = true
				break
			}
		}
		for _, ref := range refs {
			st := s.selections[ref.Group][ref.Region]
			if anyOn {
				st.ForceAllOff()
			} else {
				st.ForceCountsOnly()
			}
		}
		return nil
	})
}

// CycleRegions advances the preset cycle of each region.
func (s *Session) CycleRegions(refs []models.RegionRef) error {
	return s.mutate(func() error {
		for _, ref := range refs {
			sel, err := s.selection(ref)
			if err != nil {
				return err
			}
			sel.Cycle()
		}
		return nil
	})
}

// SetCounts applies action to the counts flag of each region.
func (s *Session) SetCounts(refs []models.RegionRef, action CountsAction) error {
	return s.mutate(func() error {
		for _, ref := range refs {
			sel, err := s.selection(ref)
			if err != nil {
				return err
			}
			v := true
			switch action {
			case ToggleCounts:
				v = !sel.CountsEnabled()
			case DeselectCounts:
				v = false
			}
			if err := sel.Set(selection.CountsID, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetCopySource remembers the region whose selection Paste copies.
func (s *Session) SetCopySource(ref models.RegionRef) error {
	return s.mutate(func() error {
		if _, err := s.region(ref); err != nil {
			return err
		}
		r := ref
		s.refs.copySource = &r
		return nil
	})
}

// Paste copies the selection of the copy source onto each target region.
// Channels the target does not have are skipped.
func (s *Session) Paste(targets []models.RegionRef) error {
	return s.mutate(func() error {
		if s.refs.copySource == nil {
			return fmt.Errorf("no selection region set")
		}
		src, err := s.selection(*s.refs.copySource)
		if err != nil {
			return err
		}
		states := src.States()
		for _, ref := range targets {
			sel, err := s.selection(ref)
			if err != nil {
				return err
			}
			sel.Apply(states)
		}
		return nil
	})
}

// Apply sets the flags named in states on one region, as produced by
// selection.State.States. Unknown names are ignored.
func (s *Session) Apply(ref models.RegionRef, states map[string]bool) error {
	return s.mutate(func() error {
		sel, err := s.selection(ref)
		if err != nil {
			return err
		}
		sel.Apply(states)
		return nil
	})
}
