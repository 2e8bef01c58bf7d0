package io

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
)

var (
	// ErrNoFormat is returned when the input has no audioFormatExtended
	// element.
	ErrNoFormat = errors.New("no audioFormatExtended element")

	// ErrNoFrame is returned by [ReadFrame] when the input is not an S-ADM
	// frame.
	ErrNoFrame = errors.New("not an S-ADM frame")
)

// ReadDocument decodes an ADM XML document from r.
//
// The audioFormatExtended element may be the root or nested in any
// wrapper (ebuCoreMain, ituADM, an S-ADM frame). Elements may appear in any
// order and reference each other forward.
//
// ReadDocument returns an error if:
//   - the XML is malformed
//   - an identifier is malformed or names the wrong kind (adm.ErrInvalidID)
//   - a time attribute is not a valid timecode (adm.ErrInvalidTimecode)
//   - an identifier appears twice (adm.ErrDuplicateID)
//   - a reference does not resolve (adm.ErrUnresolvedReference)
//
// ReadDocument does not close r.
func ReadDocument(r io.Reader) (*adm.Document, error) {
	root, err := decode(r)
	if err != nil {
		return nil, err
	}
	afe := root.find("audioFormatExtended")
	if afe == nil {
		return nil, ErrNoFormat
	}
	return parseFormat(afe)
}

// ImportDocument reads the ADM XML file at path.
func ImportDocument(path string) (*adm.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}

// ReadFrame decodes an S-ADM frame from r. A frame without an
// audioFormatExtended element yields an empty document.
//
// Returns ErrNoFrame if the root element is not a frame with a
// frameHeader/frameFormat, plus the errors of [ReadDocument].
func ReadFrame(r io.Reader) (*adm.Frame, error) {
	root, err := decode(r)
	if err != nil {
		return nil, err
	}
	if root.name() != "frame" {
		return nil, fmt.Errorf("%w: root element is %s", ErrNoFrame, root.name())
	}
	hdr := root.child("frameHeader")
	if hdr == nil {
		return nil, fmt.Errorf("%w: missing frameHeader", ErrNoFrame)
	}
	ff := hdr.child("frameFormat")
	if ff == nil {
		return nil, fmt.Errorf("%w: missing frameFormat", ErrNoFrame)
	}

	f := adm.NewFrame(0, 0, "")
	if err := parseFrameFormat(ff, &f.Header.Format); err != nil {
		return nil, err
	}
	if t := hdr.child("transportTrackFormat"); t != nil {
		ttf, err := parseTransport(t)
		if err != nil {
			return nil, err
		}
		f.Header.Transport = ttf
	}
	if afe := root.child("audioFormatExtended"); afe != nil {
		doc, err := parseFormat(afe)
		if err != nil {
			return nil, err
		}
		f.Document = doc
	}
	return f, nil
}

// ImportFrame reads the S-ADM frame file at path.
func ImportFrame(path string) (*adm.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()
	return ReadFrame(fh)
}

func decode(r io.Reader) (*node, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &root, nil
}

func parseFormat(afe *node) (*adm.Document, error) {
	doc := adm.NewDocument()
	for i := range afe.Nodes {
		n := &afe.Nodes[i]
		kind, ok := kindByElement[n.name()]
		if !ok {
			continue
		}
		e, err := parseEntity(kind, n)
		if err != nil {
			return nil, err
		}
		if err := doc.Add(e); err != nil {
			return nil, err
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseID(raw string, want adm.Kind) (adm.ID, error) {
	id, err := adm.ParseID(raw)
	if err != nil {
		return "", err
	}
	if id.Kind() != want {
		return "", fmt.Errorf("%w: %s is not an %s ID", adm.ErrInvalidID, raw, want)
	}
	return id, nil
}

func parseEntity(kind adm.Kind, n *node) (*adm.Entity, error) {
	s := specs[kind]
	raw, ok := n.attr(s.idAttr)
	if !ok {
		return nil, fmt.Errorf("%w: %s without %s", adm.ErrInvalidID, s.element, s.idAttr)
	}
	id, err := parseID(raw, kind)
	if err != nil {
		return nil, err
	}
	e, err := adm.NewEntity(id, "")
	if err != nil {
		return nil, err
	}

	for _, a := range n.Attrs {
		name := attrName(a.Name)
		switch {
		case name == s.idAttr:
		case s.nameAttr != "" && name == s.nameAttr:
			e.Name = a.Value
		case hasTypeAttrs(kind) && (name == attrTypeLabel || name == attrTypeDefinition):
			t, err := adm.ParseTypeDefinition(a.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}
			e.TypeDefinition = t
		default:
			handled, err := setTiming(e, name, a.Value)
			if err != nil {
				return nil, err
			}
			if !handled {
				e.Attrs[name] = a.Value
			}
		}
	}

	for _, c := range n.Nodes {
		if rk, ok := kindByRef[c.name()]; ok && adm.CanReference(kind, rk) {
			ref, err := parseID(c.text(), rk)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", id, c.name(), err)
			}
			if err := e.AddReference(ref); err != nil {
				return nil, err
			}
			continue
		}
		if kind == adm.KindChannelFormat && c.name() == "audioBlockFormat" {
			b, err := parseBlock(&c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}
			if err := e.AddBlockFormat(b); err != nil {
				return nil, err
			}
			continue
		}
		e.Elements = append(e.Elements, toElement(c))
	}
	return e, nil
}

// setTiming interprets start, end and duration on programmes and objects.
func setTiming(e *adm.Entity, name, value string) (bool, error) {
	var set func(time.Duration)
	switch {
	case !hasTiming(e.Kind()):
		return false, nil
	case name == attrStart:
		set = e.SetStart
	case name == attrEnd && e.Kind() == adm.KindProgramme:
		set = e.SetEnd
	case name == attrDuration && e.Kind() == adm.KindObject:
		set = e.SetDuration
	default:
		return false, nil
	}
	d, err := adm.ParseTimecode(value)
	if err != nil {
		return true, fmt.Errorf("%s %s: %w", e.ID(), name, err)
	}
	set(d)
	return true, nil
}

func parseBlock(n *node) (adm.BlockFormat, error) {
	raw, ok := n.attr(attrBlockID)
	if !ok {
		return adm.BlockFormat{}, fmt.Errorf("%w: audioBlockFormat without %s", adm.ErrInvalidID, attrBlockID)
	}
	id, err := parseID(raw, adm.KindBlockFormat)
	if err != nil {
		return adm.BlockFormat{}, err
	}
	b := adm.NewBlockFormat(id, 0)
	for _, a := range n.Attrs {
		name := attrName(a.Name)
		switch name {
		case attrBlockID:
		case attrRtime, attrDuration:
			d, err := adm.ParseTimecode(a.Value)
			if err != nil {
				return adm.BlockFormat{}, fmt.Errorf("%s %s: %w", id, name, err)
			}
			if name == attrRtime {
				b.Rtime = d
			} else {
				b = b.WithDuration(d)
			}
		default:
			if b.Attrs == nil {
				b.Attrs = adm.Attributes{}
			}
			b.Attrs[name] = a.Value
		}
	}
	for _, c := range n.Nodes {
		b.Elements = append(b.Elements, toElement(c))
	}
	return b, nil
}

func parseFrameFormat(n *node, ff *adm.FrameFormat) error {
	raw, ok := n.attr("frameFormatID")
	if !ok {
		return fmt.Errorf("%w: frameFormat without frameFormatID", ErrNoFrame)
	}
	id, err := adm.ParseFrameFormatID(raw)
	if err != nil {
		return err
	}
	ff.ID = id
	for _, a := range n.Attrs {
		var err error
		switch attrName(a.Name) {
		case "start":
			ff.Start, err = adm.ParseTimecode(a.Value)
		case "duration":
			ff.Duration, err = adm.ParseTimecode(a.Value)
		case "type":
			ff.Type = a.Value
		case "timeReference":
			ff.TimeReference = a.Value
		case "countToFull":
			ff.CountToFull, err = parseUint32(a.Value)
		case "numSubFrame":
			ff.NumSubFrame, err = parseUint32(a.Value)
		case "frameSkip":
			ff.FrameSkip, err = parseUint32(a.Value)
		case "frameShift":
			ff.FrameShift, err = parseUint32(a.Value)
		}
		if err != nil {
			return fmt.Errorf("frameFormat %s: %w", attrName(a.Name), err)
		}
	}
	return nil
}

func parseUint32(s string) (*uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, err
	}
	u := uint32(v)
	return &u, nil
}

func parseTransport(n *node) (*adm.TransportTrackFormat, error) {
	ttf := &adm.TransportTrackFormat{}
	if raw, ok := n.attr("transportID"); ok {
		id, err := adm.ParseTransportID(raw)
		if err != nil {
			return nil, err
		}
		ttf.ID = id
	}
	ttf.Name, _ = n.attr("transportName")
	for _, c := range n.Nodes {
		if c.name() != "audioTrack" {
			continue
		}
		raw, _ := c.attr("trackID")
		trackID, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("audioTrack trackID %q: %w", raw, err)
		}
		track := adm.AudioTrack{TrackID: trackID}
		track.FormatDescriptor, _ = c.attr("formatDefinition")
		for _, ref := range c.Nodes {
			if ref.name() != "audioTrackUIDRef" {
				continue
			}
			uid, err := parseID(ref.text(), adm.KindTrackUID)
			if err != nil {
				return nil, fmt.Errorf("audioTrack %d: %w", trackID, err)
			}
			track.UIDs = append(track.UIDs, uid)
		}
		ttf.AddTrack(track)
	}
	return ttf, nil
}
