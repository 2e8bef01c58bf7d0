package io

import (
	"encoding/xml"
	"strings"

	"github.com/matzehuels/sadm/pkg/adm"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Version strings written on the root elements.
const (
	ADMVersion  = "ITU-R_BS.2076-2"
	SADMVersion = "ITU-R_BS.2125-1"
)

// node is a generic XML element. Every ADM element is read into a node tree
// first and interpreted afterwards, so unknown attributes and children are
// kept verbatim.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
	Text    string     `xml:",chardata"`
}

func newNode(name string, attrs ...string) node {
	n := node{XMLName: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.set(attrs[i], attrs[i+1])
	}
	return n
}

func (n *node) name() string { return n.XMLName.Local }

func (n *node) set(name, value string) {
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if attrName(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) add(child node) { n.Nodes = append(n.Nodes, child) }

func (n *node) text() string { return strings.TrimSpace(n.Text) }

// find returns the first element named name in a depth-first search
// starting at n itself.
func (n *node) find(name string) *node {
	if n.name() == name {
		return n
	}
	for i := range n.Nodes {
		if f := n.Nodes[i].find(name); f != nil {
			return f
		}
	}
	return nil
}

// child returns the first direct child named name.
func (n *node) child(name string) *node {
	for i := range n.Nodes {
		if n.Nodes[i].name() == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func attrName(name xml.Name) string {
	switch name.Space {
	case "":
		return name.Local
	case xmlNamespace, "xml":
		return "xml:" + name.Local
	}
	return name.Local
}

func toElement(n node) adm.Element {
	el := adm.Element{Name: n.name(), Text: n.text()}
	for _, a := range n.Attrs {
		el.Attrs = append(el.Attrs, adm.Attr{Name: attrName(a.Name), Value: a.Value})
	}
	for _, c := range n.Nodes {
		el.Children = append(el.Children, toElement(c))
	}
	return el
}

func fromElement(el adm.Element) node {
	n := newNode(el.Name)
	for _, a := range el.Attrs {
		n.set(a.Name, a.Value)
	}
	n.Text = el.Text
	for _, c := range el.Children {
		n.add(fromElement(c))
	}
	return n
}

// elementSpec describes how one entity kind is spelled in ADM XML.
type elementSpec struct {
	element string
	idAttr  string
	// nameAttr is empty for kinds without a name attribute.
	nameAttr string
	// ref is the element used to reference an entity of this kind.
	ref string
}

var specs = map[adm.Kind]elementSpec{
	adm.KindProgramme:     {"audioProgramme", "audioProgrammeID", "audioProgrammeName", "audioProgrammeIDRef"},
	adm.KindContent:       {"audioContent", "audioContentID", "audioContentName", "audioContentIDRef"},
	adm.KindObject:        {"audioObject", "audioObjectID", "audioObjectName", "audioObjectIDRef"},
	adm.KindPackFormat:    {"audioPackFormat", "audioPackFormatID", "audioPackFormatName", "audioPackFormatIDRef"},
	adm.KindChannelFormat: {"audioChannelFormat", "audioChannelFormatID", "audioChannelFormatName", "audioChannelFormatIDRef"},
	adm.KindStreamFormat:  {"audioStreamFormat", "audioStreamFormatID", "audioStreamFormatName", "audioStreamFormatIDRef"},
	adm.KindTrackFormat:   {"audioTrackFormat", "audioTrackFormatID", "audioTrackFormatName", "audioTrackFormatIDRef"},
	adm.KindTrackUID:      {"audioTrackUID", "UID", "", "audioTrackUIDRef"},
}

var (
	kindByElement = make(map[string]adm.Kind)
	kindByRef     = make(map[string]adm.Kind)
)

func init() {
	for k, s := range specs {
		kindByElement[s.element] = k
		kindByRef[s.ref] = k
	}
}

// Attributes interpreted by the codec, per kind. Everything else lands in
// Entity.Attrs.
const (
	attrStart          = "start"
	attrEnd            = "end"
	attrDuration       = "duration"
	attrTypeLabel      = "typeLabel"
	attrTypeDefinition = "typeDefinition"
	attrBlockID        = "audioBlockFormatID"
	attrRtime          = "rtime"
)

func hasTypeAttrs(k adm.Kind) bool {
	return k == adm.KindPackFormat || k == adm.KindChannelFormat
}

func hasTiming(k adm.Kind) bool {
	return k == adm.KindProgramme || k == adm.KindObject
}
