// Package combine reassembles Serial-ADM frames into one ADM document.
//
// # Overview
//
// A [Combiner] is the inverse of a segment.Segmenter. Each identifier ends
// up in the combined document exactly once; channel formats accumulate the
// block formats of every frame in arrival order:
//
//	c := combine.New()
//	for _, f := range frames {
//	    if err := c.Push(f); err != nil {
//	        return err
//	    }
//	}
//	doc := c.Document()
//
// Pushes are atomic: a frame that fails (see [ErrTransportMismatch]) leaves
// the combined document as it was, so a caller may skip it and continue.
//
// The combined transportTrackFormat is available through
// [Combiner.TransportTrackFormat]. Its track and UID counts are derived from
// the tracks each time they are read.
package combine
