// Package segment cuts an ADM document into Serial-ADM frames.
//
// # Overview
//
// [New] copies the document, sorts every channel's block formats by rtime
// and traces every programme into routes (see package route). Each route is
// reduced to an [Item]: the channel format it ends in and the absolute
// interval in which its blocks are valid.
//
//	s, err := segment.New(doc)
//	if err != nil {
//	    return err
//	}
//	for start := time.Duration(0); start < length; start += time.Second {
//	    frame, err := s.Frame(start, time.Second)
//	    ...
//	}
//
// # Validity
//
// An item starts at the latest start of any object on its route (0 when
// none is set) and ends at the tightest of the programme length and each
// object's start+duration. Without any bound the item stays open.
//
// # Windowing
//
// [Classify] places an item Before, Overlapping or After a window. Items
// touching a window edge still overlap; they contribute nothing unless the
// search range, the intersection of validity and window, is non-empty.
// [SelectBlocks] then selects the blocks needed to interpolate inside the
// search range, including the boundary blocks on both sides. Both steps use
// [Interval.Overlaps].
//
// # Frames
//
// [Segmenter.Frame] copies every entity of each contributing item into the
// frame once and drops references to entities outside the frame. Items are
// all or nothing: an item without selected blocks adds no entity. Frame IDs
// count up from 1 per Segmenter.
//
// # Transport
//
// [Segmenter.TransportTrackFormat] derives a transportTrackFormat for a
// window from a chna table using [Segmenter.IsPresent].
package segment
