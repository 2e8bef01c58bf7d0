// Package adm provides the Audio Definition Model (ADM) entity graph used by
// the Serial-ADM segmenter and combiner.
//
// # Overview
//
// An ADM document is a typed graph: programmes reference content, content
// references objects, objects reference nested objects, pack formats and
// track UIDs, pack formats reference channel formats (and nested packs), and
// so on down to the channel formats, which own the time-varying block
// formats. This package stores that graph as an arena keyed by [ID]:
//
//	doc := adm.NewDocument()
//	obj, _ := adm.NewEntity("AO_1001", "Narrator")
//	pack, _ := adm.NewEntity("AP_00031001", "Narrator")
//	_ = obj.AddReference(pack.ID())
//	_ = doc.Add(obj)
//	_ = doc.Add(pack)
//
// References are IDs, not pointers, so an entity shared by several parents
// exists once, and copying a sub-graph into another arena (a [Frame]) never
// aliases the source.
//
// # Identifiers
//
// [ParseID] validates ADM identifier strings and [ID.Kind] recovers the
// entity kind from the prefix (APR, ACO, AO, AP, AC, AS, AT, ATU, AB).
// Format IDs also encode a [TypeDefinition]. Malformed strings fail with
// [ErrInvalidID].
//
// # Time
//
// Times are [time.Duration] values. [ParseTimecode] and [FormatTimecode]
// convert between durations and ADM time expressions.
//
// # References
//
// [Entity.AddReference] enforces which kinds may reference which, and the
// cardinality of each: a track UID holds at most one track format, pack
// format and channel format (the last one set wins), a stream format at most
// one channel format. [Document.Validate] reports the first reference that
// does not resolve.
//
// # Frames
//
// A [Frame] is a [Document] plus a [FrameHeader] describing the time window
// and the optional [TransportTrackFormat].
package adm
