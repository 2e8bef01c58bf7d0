package adm

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Frame types defined for S-ADM frame headers.
const (
	FrameTypeFull         = "full"
	FrameTypeHeader       = "header"
	FrameTypeDivided      = "divided"
	FrameTypeIntermediate = "intermediate"
	FrameTypeAll          = "all"
)

// Time reference values of a frame format.
const (
	TimeReferenceTotal = "total"
	TimeReferenceLocal = "local"
)

// FrameFormat describes the time window a frame covers.
type FrameFormat struct {
	// ID is the frame counter, formatted as FF_xxxxxxxxxxx.
	ID       uint64
	Start    time.Duration
	Duration time.Duration
	// Type is one of the FrameType constants.
	Type string
	// TimeReference is "total" or "local"; empty means not set.
	TimeReference string

	CountToFull *uint32
	NumSubFrame *uint32
	FrameSkip   *uint32
	FrameShift  *uint32
}

// End returns Start+Duration.
func (f FrameFormat) End() time.Duration { return f.Start + f.Duration }

// FormattedID returns the frameFormatID attribute value.
func (f FrameFormat) FormattedID() string { return FormatFrameFormatID(f.ID) }

// FormatFrameFormatID formats a frame counter as "FF_" plus 11 hex digits.
func FormatFrameFormatID(v uint64) string { return fmt.Sprintf("FF_%011X", v) }

// ParseFrameFormatID parses an "FF_..." frameFormatID.
func ParseFrameFormatID(s string) (uint64, error) {
	rest, ok := strings.CutPrefix(s, "FF_")
	if !ok || rest == "" || len(rest) > 11 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	v, err := strconv.ParseUint(rest, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return v, nil
}

// AudioTrack lists the track UIDs carried on one physical track.
type AudioTrack struct {
	TrackID int
	// FormatDescriptor is the track's formatDefinition; empty means unset.
	FormatDescriptor string
	UIDs             []ID
}

// TransportTrackFormat describes which track UIDs are carried on which
// physical tracks of the transport.
type TransportTrackFormat struct {
	// ID is the transport counter, formatted as TP_xxxx.
	ID     uint16
	Name   string
	Tracks []AudioTrack
}

// FormatTransportID formats a transport counter as "TP_xxxx".
func FormatTransportID(v uint16) string { return fmt.Sprintf("TP_%04X", v) }

// ParseTransportID parses a "TP_xxxx" transportID.
func ParseTransportID(s string) (uint16, error) {
	rest, ok := strings.CutPrefix(s, "TP_")
	if !ok || len(rest) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	v, err := strconv.ParseUint(rest, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return uint16(v), nil
}

// FormattedID returns the transportID attribute value.
func (t *TransportTrackFormat) FormattedID() string { return FormatTransportID(t.ID) }

// AddTrack adds a track. If a track with the same TrackID exists, the new
// UIDs are appended to it instead, so track IDs stay distinct.
func (t *TransportTrackFormat) AddTrack(track AudioTrack) {
	for i := range t.Tracks {
		if t.Tracks[i].TrackID == track.TrackID {
			for _, uid := range track.UIDs {
				if !slices.Contains(t.Tracks[i].UIDs, uid) {
					t.Tracks[i].UIDs = append(t.Tracks[i].UIDs, uid)
				}
			}
			return
		}
	}
	track.UIDs = slices.Clone(track.UIDs)
	t.Tracks = append(t.Tracks, track)
}

// ClearTracks removes every track.
func (t *TransportTrackFormat) ClearTracks() { t.Tracks = nil }

// NumTracks returns the number of distinct tracks.
func (t *TransportTrackFormat) NumTracks() int { return len(t.Tracks) }

// NumIDs returns the total number of track UID references across all
// tracks.
func (t *TransportTrackFormat) NumIDs() int {
	n := 0
	for _, tr := range t.Tracks {
		n += len(tr.UIDs)
	}
	return n
}

// Copy returns a deep copy of t.
func (t *TransportTrackFormat) Copy() *TransportTrackFormat {
	if t == nil {
		return nil
	}
	c := &TransportTrackFormat{ID: t.ID, Name: t.Name, Tracks: make([]AudioTrack, len(t.Tracks))}
	for i, tr := range t.Tracks {
		tr.UIDs = slices.Clone(tr.UIDs)
		c.Tracks[i] = tr
	}
	return c
}

// FrameHeader carries the frame format and the optional transport
// descriptor.
type FrameHeader struct {
	Format FrameFormat
	// Transport is nil when the frame carries no transportTrackFormat.
	Transport *TransportTrackFormat
}

// Frame is a self-contained, window-scoped ADM sub-graph. Its entities live
// in their own [Document] and never alias a source document's entities.
type Frame struct {
	Header FrameHeader
	*Document
}

// NewFrame creates an empty frame covering [start, start+duration).
func NewFrame(start, duration time.Duration, frameType string) *Frame {
	return &Frame{
		Header: FrameHeader{Format: FrameFormat{
			Start:    start,
			Duration: duration,
			Type:     frameType,
		}},
		Document: NewDocument(),
	}
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	h := f.Header
	h.Transport = f.Header.Transport.Copy()
	h.Format.CountToFull = cloneU32(h.Format.CountToFull)
	h.Format.NumSubFrame = cloneU32(h.Format.NumSubFrame)
	h.Format.FrameSkip = cloneU32(h.Format.FrameSkip)
	h.Format.FrameShift = cloneU32(h.Format.FrameShift)
	return &Frame{Header: h, Document: f.Document.Copy()}
}

func cloneU32(p *uint32) *uint32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
