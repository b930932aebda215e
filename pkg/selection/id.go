package selection

import (
	"fmt"
	"strconv"
	"strings"

	"sinspect/internal/models"
)

// Kind is the category of a selectable signal
type Kind int

const (
	Counts Kind = iota
	ChannelCounts
	ExtendedChannels
)

const (
	countsName           = "counts"
	channelCountsName    = "channel_counts"
	extendedChannelsName = "extended_channels"
)

func (k Kind) String() string {
	switch k {
	case Counts:
		return countsName
	case ChannelCounts:
		return channelCountsName
	case ExtendedChannels:
		return extendedChannelsName
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ID identifies one selectable signal of a region. Index is 1-based and unused
// for Counts.
type ID struct {
	Kind  Kind
	Index int
}

// CountsID is the identifier of the aggregate counts signal.
var CountsID = ID{Kind: Counts}

// Channel returns the identifier of channel_counts_i.
func Channel(i int) ID { return ID{Kind: ChannelCounts, Index: i} }

// Extended returns the identifier of extended_channels_i.
func Extended(i int) ID { return ID{Kind: ExtendedChannels, Index: i} }

// String formats the identifier as counts, channel_counts_<i> or
// extended_channels_<i>.
func (id ID) String() string {
	if id.Kind == Counts {
		return countsName
	}
	return fmt.Sprintf("%s_%d", id.Kind, id.Index)
}

// Valid reports whether the identifier is well formed.
func (id ID) Valid() bool {
	switch id.Kind {
	case Counts:
		return id.Index == 0
	case ChannelCounts, ExtendedChannels:
		return id.Index >= 1 && id.Index <= models.MaxChannels
	default:
		return false
	}
}

// ParseID parses the textual form produced by ID.String.
func ParseID(s string) (ID, error) {
	if s == countsName {
		return CountsID, nil
	}
	cut := strings.LastIndex(s, "_")
	if cut < 0 {
		return ID{}, fmt.Errorf("invalid channel identifier %q", s)
	}
	body, num := s[:cut], s[cut+1:]
	n, err := strconv.Atoi(num)
	if err != nil {
		return ID{}, fmt.Errorf("invalid channel identifier %q: %w", s, err)
	}

	var id ID
	switch body {
	case channelCountsName:
		id = Channel(n)
	case extendedChannelsName:
		id = Extended(n)
	default:
		return ID{}, fmt.Errorf("invalid channel identifier %q", s)
	}
	if !id.Valid() {
		return ID{}, fmt.Errorf("channel index out of range in %q", s)
	}
	return id, nil
}
