package io

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/matzehuels/sadm/pkg/adm"
)

// Options controls XML output.
type Options struct {
	// WriteDefaultValues emits optional attributes that hold their default
	// value: programme and object start, and block rtime.
	WriteDefaultValues bool
	// ITUStructure wraps documents in ituADM/coreMetadata/format instead of
	// the EBU Core ebuCoreMain wrapper. Frames are not affected.
	ITUStructure bool
}

// WriteDocument encodes doc as ADM XML and writes it to w. Entities are
// written grouped by kind, top down, and in document order within a kind.
// The output can be read back with [ReadDocument].
func WriteDocument(w io.Writer, doc *adm.Document, opts Options) error {
	afe := formatNode(doc, opts)
	format := newNode("format")
	format.add(afe)
	core := newNode("coreMetadata")
	core.add(format)

	var root node
	if opts.ITUStructure {
		root = newNode("ituADM", "xmlns", "urn:metadata-schema:adm")
	} else {
		root = newNode("ebuCoreMain",
			"xmlns:dc", "http://purl.org/dc/elements/1.1/",
			"xmlns", "urn:ebu:metadata-schema:ebuCore_2014",
			"xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance",
			"schema", "EBU_CORE_20140201.xsd",
			"xml:lang", "en",
		)
	}
	root.add(core)
	return encode(w, root)
}

// ExportDocument writes doc to an ADM XML file at path.
func ExportDocument(doc *adm.Document, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(f, doc, opts)
}

// WriteFrame encodes f as S-ADM frame XML and writes it to w.
func WriteFrame(w io.Writer, f *adm.Frame, opts Options) error {
	root := newNode("frame", "version", SADMVersion)
	hdr := newNode("frameHeader")
	hdr.add(frameFormatNode(f.Header.Format))
	if t := f.Header.Transport; t != nil {
		hdr.add(transportNode(t))
	}
	root.add(hdr)
	root.add(formatNode(f.Document, opts))
	return encode(w, root)
}

// ExportFrame writes f to an S-ADM XML file at path.
func ExportFrame(f *adm.Frame, path string, opts Options) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fh.Close()
	return WriteFrame(fh, f, opts)
}

// MarshalFrame returns the S-ADM XML encoding of f.
func MarshalFrame(f *adm.Frame, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, f, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalDocument returns the ADM XML encoding of doc.
func MarshalDocument(doc *adm.Document, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTransport returns the XML encoding of a standalone
// transportTrackFormat element.
func MarshalTransport(t *adm.TransportTrackFormat) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("marshal transport: nil transport track format")
	}
	var buf bytes.Buffer
	if err := encode(&buf, transportNode(t)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(w io.Writer, root node) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func formatNode(doc *adm.Document, opts Options) node {
	afe := newNode("audioFormatExtended", "version", ADMVersion)
	if doc == nil {
		return afe
	}
	for _, e := range doc.All() {
		afe.add(entityNode(e, opts))
	}
	return afe
}

func entityNode(e *adm.Entity, opts Options) node {
	kind := e.Kind()
	s := specs[kind]
	n := newNode(s.element, s.idAttr, string(e.ID()))
	if s.nameAttr != "" {
		n.set(s.nameAttr, e.Name)
	}
	if hasTiming(kind) {
		if d, ok := e.Start(); ok {
			n.set(attrStart, adm.FormatTimecode(d))
		} else if opts.WriteDefaultValues {
			n.set(attrStart, adm.FormatTimecode(0))
		}
		if d, ok := e.End(); ok && kind == adm.KindProgramme {
			n.set(attrEnd, adm.FormatTimecode(d))
		}
		if d, ok := e.Duration(); ok && kind == adm.KindObject {
			n.set(attrDuration, adm.FormatTimecode(d))
		}
	}
	if hasTypeAttrs(kind) {
		n.set(attrTypeLabel, e.TypeDefinition.Label())
		if name := e.TypeDefinition.String(); name != "" {
			n.set(attrTypeDefinition, name)
		}
	}
	setAttrs(&n, e.Attrs)

	for _, ref := range e.AllReferences() {
		r := newNode(specs[ref.Kind()].ref)
		r.Text = string(ref)
		n.add(r)
	}
	for _, el := range e.Elements {
		n.add(fromElement(el))
	}
	for _, b := range e.BlockFormats() {
		n.add(blockNode(b, opts))
	}
	return n
}

func blockNode(b adm.BlockFormat, opts Options) node {
	n := newNode("audioBlockFormat", attrBlockID, string(b.ID))
	if b.Rtime != 0 || opts.WriteDefaultValues {
		n.set(attrRtime, adm.FormatTimecode(b.Rtime))
	}
	if b.Duration != nil {
		n.set(attrDuration, adm.FormatTimecode(*b.Duration))
	}
	setAttrs(&n, b.Attrs)
	for _, el := range b.Elements {
		n.add(fromElement(el))
	}
	return n
}

// setAttrs writes uninterpreted attributes in name order.
func setAttrs(n *node, attrs adm.Attributes) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		n.set(k, attrs[k])
	}
}

func frameFormatNode(ff adm.FrameFormat) node {
	n := newNode("frameFormat",
		"frameFormatID", ff.FormattedID(),
		"start", adm.FormatTimecode(ff.Start),
		"duration", adm.FormatTimecode(ff.Duration),
		"type", ff.Type,
	)
	if ff.TimeReference != "" {
		n.set("timeReference", ff.TimeReference)
	}
	for _, opt := range []struct {
		name string
		v    *uint32
	}{
		{"countToFull", ff.CountToFull},
		{"numSubFrame", ff.NumSubFrame},
		{"frameSkip", ff.FrameSkip},
		{"frameShift", ff.FrameShift},
	} {
		if opt.v != nil {
			n.set(opt.name, strconv.FormatUint(uint64(*opt.v), 10))
		}
	}
	return n
}

func transportNode(t *adm.TransportTrackFormat) node {
	n := newNode("transportTrackFormat", "transportID", t.FormattedID())
	if t.Name != "" {
		n.set("transportName", t.Name)
	}
	n.set("numIDs", strconv.Itoa(t.NumIDs()))
	n.set("numTracks", strconv.Itoa(t.NumTracks()))
	for _, tr := range t.Tracks {
		at := newNode("audioTrack", "trackID", strconv.Itoa(tr.TrackID))
		if tr.FormatDescriptor != "" {
			at.set("formatDefinition", tr.FormatDescriptor)
		}
		for _, uid := range tr.UIDs {
			r := newNode("audioTrackUIDRef")
			r.Text = string(uid)
			at.add(r)
		}
		n.add(at)
	}
	return n
}
