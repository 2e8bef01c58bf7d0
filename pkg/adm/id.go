package adm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the role of an entity in the ADM reference graph.
type Kind int

const (
	// KindUnknown is the zero Kind, returned for IDs that do not parse.
	KindUnknown Kind = iota
	KindProgramme
	KindContent
	KindObject
	KindPackFormat
	KindChannelFormat
	KindStreamFormat
	KindTrackFormat
	KindTrackUID
	// KindBlockFormat is the kind of block-format IDs. Block formats are not
	// entities; they live inside their channel format.
	KindBlockFormat
)

var kindNames = map[Kind]string{
	KindProgramme:     "audioProgramme",
	KindContent:       "audioContent",
	KindObject:        "audioObject",
	KindPackFormat:    "audioPackFormat",
	KindChannelFormat: "audioChannelFormat",
	KindStreamFormat:  "audioStreamFormat",
	KindTrackFormat:   "audioTrackFormat",
	KindTrackUID:      "audioTrackUID",
	KindBlockFormat:   "audioBlockFormat",
}

// String returns the ADM element name for the kind (e.g. "audioObject").
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// EntityKinds lists the entity kinds in top-down graph order. Documents and
// frames enumerate their entities in this order.
var EntityKinds = []Kind{
	KindProgramme,
	KindContent,
	KindObject,
	KindPackFormat,
	KindChannelFormat,
	KindStreamFormat,
	KindTrackFormat,
	KindTrackUID,
}

// TypeDefinition is the ADM typeDefinition of pack and channel formats.
// Its numeric value is the "yyyy" part of format IDs.
type TypeDefinition int

const (
	TypeUndefined      TypeDefinition = 0
	TypeDirectSpeakers TypeDefinition = 1
	TypeMatrix         TypeDefinition = 2
	TypeObjects        TypeDefinition = 3
	TypeHOA            TypeDefinition = 4
	TypeBinaural       TypeDefinition = 5
)

var typeLabels = map[TypeDefinition]string{
	TypeDirectSpeakers: "DirectSpeakers",
	TypeMatrix:         "Matrix",
	TypeObjects:        "Objects",
	TypeHOA:            "HOA",
	TypeBinaural:       "Binaural",
}

// String returns the typeDefinition label (e.g. "Objects").
func (t TypeDefinition) String() string {
	if s, ok := typeLabels[t]; ok {
		return s
	}
	return ""
}

// Label returns the typeLabel attribute value, a 4-digit hex string.
func (t TypeDefinition) Label() string { return fmt.Sprintf("%04X", int(t)) }

// ParseTypeDefinition accepts either a typeDefinition name ("Objects") or a
// typeLabel ("0003").
func ParseTypeDefinition(s string) (TypeDefinition, error) {
	for t, name := range typeLabels {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return TypeUndefined, fmt.Errorf("%w: type definition %q", ErrInvalidID, s)
	}
	return TypeDefinition(v), nil
}

// ID is the string form of an ADM identifier, e.g. "AO_1001" or
// "AB_00031001_00000001". The kind of an ID is encoded in its prefix.
type ID string

type idPattern struct {
	kind Kind
	re   *regexp.Regexp
}

var idPatterns = map[string]idPattern{
	"APR": {KindProgramme, regexp.MustCompile(`^APR_[0-9a-fA-F]{4}$`)},
	"ACO": {KindContent, regexp.MustCompile(`^ACO_[0-9a-fA-F]{4}$`)},
	"AO":  {KindObject, regexp.MustCompile(`^AO_[0-9a-fA-F]{4}$`)},
	"AP":  {KindPackFormat, regexp.MustCompile(`^AP_[0-9a-fA-F]{8}$`)},
	"AC":  {KindChannelFormat, regexp.MustCompile(`^AC_[0-9a-fA-F]{8}$`)},
	"AS":  {KindStreamFormat, regexp.MustCompile(`^AS_[0-9a-fA-F]{8}$`)},
	"AT":  {KindTrackFormat, regexp.MustCompile(`^AT_[0-9a-fA-F]{8}_[0-9a-fA-F]{2}$`)},
	"ATU": {KindTrackUID, regexp.MustCompile(`^ATU_[0-9a-fA-F]{8}$`)},
	"AB":  {KindBlockFormat, regexp.MustCompile(`^AB_[0-9a-fA-F]{8}_[0-9a-fA-F]{8}$`)},
}

// ParseID validates s as an ADM identifier and returns it as an ID.
// Returns an error wrapping ErrInvalidID that names s if the prefix is
// unknown or the hex fields have the wrong width.
func ParseID(s string) (ID, error) {
	prefix, _, ok := strings.Cut(s, "_")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	p, known := idPatterns[prefix]
	if !known || !p.re.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(strings.ToUpper(s)), nil
}

// MustParseID is like ParseID but panics on error. It is intended for
// constants in tests and examples.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Kind returns the entity kind encoded in the ID prefix, or KindUnknown.
func (id ID) Kind() Kind {
	prefix, _, ok := strings.Cut(string(id), "_")
	if !ok {
		return KindUnknown
	}
	if p, known := idPatterns[prefix]; known {
		return p.kind
	}
	return KindUnknown
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// TypeDefinition returns the "yyyy" field of format IDs (pack, channel,
// stream, track and block formats). Other kinds return TypeUndefined.
func (id ID) TypeDefinition() TypeDefinition {
	switch id.Kind() {
	case KindPackFormat, KindChannelFormat, KindStreamFormat, KindTrackFormat, KindBlockFormat:
	default:
		return TypeUndefined
	}
	_, rest, _ := strings.Cut(string(id), "_")
	if len(rest) < 4 {
		return TypeUndefined
	}
	v, err := strconv.ParseUint(rest[:4], 16, 16)
	if err != nil {
		return TypeUndefined
	}
	return TypeDefinition(v)
}

// Counter returns the trailing counter of block-format IDs
// ("AB_00031001_0000000c" → 12). Other kinds return 0.
func (id ID) Counter() uint32 {
	if id.Kind() != KindBlockFormat {
		return 0
	}
	i := strings.LastIndexByte(string(id), '_')
	v, err := strconv.ParseUint(string(id)[i+1:], 16, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

// FormatProgrammeID formats an audioProgrammeID from its value.
func FormatProgrammeID(value uint16) ID { return ID(fmt.Sprintf("APR_%04X", value)) }

// FormatContentID formats an audioContentID from its value.
func FormatContentID(value uint16) ID { return ID(fmt.Sprintf("ACO_%04X", value)) }

// FormatObjectID formats an audioObjectID from its value.
func FormatObjectID(value uint16) ID { return ID(fmt.Sprintf("AO_%04X", value)) }

// FormatPackFormatID formats an audioPackFormatID.
func FormatPackFormatID(t TypeDefinition, value uint16) ID {
	return ID(fmt.Sprintf("AP_%04X%04X", int(t), value))
}

// FormatChannelFormatID formats an audioChannelFormatID.
func FormatChannelFormatID(t TypeDefinition, value uint16) ID {
	return ID(fmt.Sprintf("AC_%04X%04X", int(t), value))
}

// FormatStreamFormatID formats an audioStreamFormatID.
func FormatStreamFormatID(t TypeDefinition, value uint16) ID {
	return ID(fmt.Sprintf("AS_%04X%04X", int(t), value))
}

// FormatTrackFormatID formats an audioTrackFormatID.
func FormatTrackFormatID(t TypeDefinition, value uint16, counter uint8) ID {
	return ID(fmt.Sprintf("AT_%04X%04X_%02X", int(t), value, counter))
}

// FormatTrackUID formats an audioTrackUID ID.
func FormatTrackUID(value uint32) ID { return ID(fmt.Sprintf("ATU_%08X", value)) }

// BlockFormatID derives the ID of the counter-th block of a channel format:
// "AC_00031001" with counter 1 gives "AB_00031001_00000001".
func BlockFormatID(channel ID, counter uint32) ID {
	_, rest, _ := strings.Cut(string(channel), "_")
	return ID(fmt.Sprintf("AB_%s_%08X", rest, counter))
}

// ChannelOf returns the channel-format ID a block-format ID belongs to.
func ChannelOf(block ID) ID {
	if block.Kind() != KindBlockFormat {
		return ""
	}
	_, rest, _ := strings.Cut(string(block), "_")
	if len(rest) < 8 {
		return ""
	}
	return ID("AC_" + rest[:8])
}
