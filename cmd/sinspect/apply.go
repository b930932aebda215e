package main

import (
	"fmt"

	"sinspect/internal/models"
	"sinspect/pkg/config"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
	"sinspect/pkg/session"
)

// applyConfig pushes the configured selections and normalisation references
// into a session holding a loaded file.
func applyConfig(sess *session.Session, cfg *config.Config) error {
	file := sess.File()
	if file == nil {
		return session.ErrNoFile
	}

	for _, rs := range cfg.Selections {
		ref, ok := file.Find(rs.Group, rs.Region)
		if !ok {
			return fmt.Errorf("selection for unknown region %s/%s", rs.Group, rs.Region)
		}
		if err := sess.Apply(ref, selectionStates(file.Region(ref), rs)); err != nil {
			return err
		}
	}

	n := cfg.Normalization
	if err := sess.SetSingleReference(n.SingleReference); err != nil {
		return err
	}
	numerator, err := normalization.ParseSelector(n.Numerator)
	if err != nil {
		return err
	}
	if err := sess.SetReferenceSelectors(numerator, n.Denominator); err != nil {
		return err
	}
	if n.Reference.Region != "" {
		ref, ok := file.Find(n.Reference.Group, n.Reference.Region)
		if !ok {
			return fmt.Errorf("normalisation reference %s/%s not found", n.Reference.Group, n.Reference.Region)
		}
		if err := sess.SetNormalizationReference(ref); err != nil {
			return err
		}
	}
	return nil
}

func selectionStates(r *models.Region, rs config.RegionSelection) map[string]bool {
	states := map[string]bool{}
	if rs.Counts != nil {
		states[selection.CountsID.String()] = *rs.Counts
	}
	if rs.Channels != nil {
		for i := 1; i <= r.ChannelCounts.Count(); i++ {
			states[selection.Channel(i).String()] = contains(rs.Channels, i)
		}
	}
	if rs.Extended != nil {
		for i := 1; i <= r.ExtendedChannels.Count(); i++ {
			states[selection.Extended(i).String()] = contains(rs.Extended, i)
		}
	}
	return states
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
