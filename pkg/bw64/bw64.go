package bw64

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

var (
	// ErrNotBW64 is returned when the input is not a RIFF, RF64 or BW64
	// WAVE file.
	ErrNotBW64 = errors.New("not a BW64 file")

	// ErrMissingChunk is returned when a required chunk is absent.
	ErrMissingChunk = errors.New("missing chunk")

	// ErrMalformedChunk is returned when a chunk's payload is truncated or
	// its size fields disagree.
	ErrMalformedChunk = errors.New("malformed chunk")
)

const (
	audioIDSize   = 40
	chnaHeaderLen = 4
	sizeInDS64    = 0xFFFFFFFF
)

// AudioID is one row of a chna chunk: which track UID is carried on which
// track, with the track and pack format it uses.
type AudioID struct {
	TrackIndex uint16
	UID        string
	TrackRef   string
	PackRef    string
}

// ChnaTable is the decoded chna chunk.
type ChnaTable struct {
	IDs []AudioID
}

// NumTracks returns the number of distinct track indices.
func (t ChnaTable) NumTracks() int {
	seen := make(map[uint16]bool)
	for _, id := range t.IDs {
		seen[id.TrackIndex] = true
	}
	return len(seen)
}

// NumUIDs returns the number of rows.
func (t ChnaTable) NumUIDs() int { return len(t.IDs) }

// Format is the decoded fmt chunk.
type Format struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Chunk is a raw chunk of a RIFF file.
type Chunk struct {
	ID   string
	Data []byte
}

// File holds the metadata chunks of a BW64 file. Audio samples are not
// read; only the size of the data chunk is kept.
type File struct {
	Format   Format
	Chna     *ChnaTable
	AXML     []byte
	DataSize uint64
	// ChunkIDs lists every chunk in file order.
	ChunkIDs []string
}

// Duration returns the audio length derived from the data chunk size.
func (f *File) Duration() time.Duration {
	if f.Format.BlockAlign == 0 || f.Format.SampleRate == 0 {
		return 0
	}
	frames := f.DataSize / uint64(f.Format.BlockAlign)
	return time.Duration(frames) * time.Second / time.Duration(f.Format.SampleRate)
}

// ReadFile opens and reads the named file.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

// Read parses the chunks of a RIFF, RF64 or BW64 WAVE stream. The fmt, chna
// and axml chunks are decoded; the data chunk is skipped.
func Read(r io.Reader) (*File, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBW64, err)
	}
	magic := string(hdr[0:4])
	if (magic != "RIFF" && magic != "RF64" && magic != "BW64") || string(hdr[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: header %q", ErrNotBW64, hdr[:])
	}

	f := &File{}
	var ds64 map[string]uint64
	for {
		var ch [8]byte
		_, err := io.ReadFull(r, ch[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: chunk header: %v", ErrMalformedChunk, err)
		}
		id := string(ch[0:4])
		size := uint64(binary.LittleEndian.Uint32(ch[4:8]))
		if size == sizeInDS64 {
			big, ok := ds64[id]
			if !ok {
				return nil, fmt.Errorf("%w: %q size not in ds64", ErrMalformedChunk, id)
			}
			size = big
		}
		f.ChunkIDs = append(f.ChunkIDs, id)

		if id == "data" {
			f.DataSize = size
			if err := skip(r, size+size%2); err != nil {
				// Truncated data chunks are common in streamed files.
				break
			}
			continue
		}

		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedChunk, id, err)
		}
		if size%2 == 1 {
			if err := skip(r, 1); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
		}

		switch id {
		case "ds64":
			if ds64, err = parseDS64(data); err != nil {
				return nil, err
			}
		case "fmt ":
			if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &f.Format); err != nil {
				return nil, fmt.Errorf("%w: fmt: %v", ErrMalformedChunk, err)
			}
		case "chna":
			t, err := ParseChna(data)
			if err != nil {
				return nil, err
			}
			f.Chna = &t
		case "axml":
			f.AXML = data
		}
	}
	return f, nil
}

func skip(r io.Reader, n uint64) error {
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(int64(n), io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

func parseDS64(data []byte) (map[string]uint64, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("%w: ds64 too short", ErrMalformedChunk)
	}
	sizes := map[string]uint64{
		"RF64": binary.LittleEndian.Uint64(data[0:8]),
		"BW64": binary.LittleEndian.Uint64(data[0:8]),
		"data": binary.LittleEndian.Uint64(data[8:16]),
	}
	n := int(binary.LittleEndian.Uint32(data[24:28]))
	table := data[28:]
	if len(table) < n*12 {
		return nil, fmt.Errorf("%w: ds64 table truncated", ErrMalformedChunk)
	}
	for i := 0; i < n; i++ {
		e := table[i*12 : i*12+12]
		sizes[string(e[0:4])] = binary.LittleEndian.Uint64(e[4:12])
	}
	return sizes, nil
}

// ParseChna decodes a chna chunk payload.
func ParseChna(data []byte) (ChnaTable, error) {
	if len(data) < chnaHeaderLen {
		return ChnaTable{}, fmt.Errorf("%w: chna too short", ErrMalformedChunk)
	}
	numUIDs := int(binary.LittleEndian.Uint16(data[2:4]))
	body := data[chnaHeaderLen:]
	if len(body) < numUIDs*audioIDSize {
		return ChnaTable{}, fmt.Errorf("%w: chna declares %d ids, has room for %d",
			ErrMalformedChunk, numUIDs, len(body)/audioIDSize)
	}
	t := ChnaTable{IDs: make([]AudioID, 0, numUIDs)}
	for i := 0; i < numUIDs; i++ {
		row := body[i*audioIDSize : (i+1)*audioIDSize]
		id := AudioID{
			TrackIndex: binary.LittleEndian.Uint16(row[0:2]),
			UID:        cstring(row[2:14]),
			TrackRef:   cstring(row[14:28]),
			PackRef:    cstring(row[28:39]),
		}
		// Unused slots are zero filled.
		if id.TrackIndex == 0 && id.UID == "" {
			continue
		}
		t.IDs = append(t.IDs, id)
	}
	return t, nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// MarshalBinary encodes the table as a chna chunk payload.
func (t ChnaTable) MarshalBinary() ([]byte, error) {
	buf := make([]byte, chnaHeaderLen+len(t.IDs)*audioIDSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(t.NumTracks()))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(t.IDs)))
	for i, id := range t.IDs {
		row := buf[chnaHeaderLen+i*audioIDSize:]
		binary.LittleEndian.PutUint16(row[0:2], id.TrackIndex)
		if len(id.UID) > 12 || len(id.TrackRef) > 14 || len(id.PackRef) > 11 {
			return nil, fmt.Errorf("%w: chna row %d field too long", ErrMalformedChunk, i)
		}
		copy(row[2:14], id.UID)
		copy(row[14:28], id.TrackRef)
		copy(row[28:39], id.PackRef)
	}
	return buf, nil
}

// Write writes a RIFF WAVE file made of the given chunks.
func Write(w io.Writer, chunks ...Chunk) error {
	var size uint32 = 4
	for _, c := range chunks {
		size += 8 + uint32(len(c.Data)) + uint32(len(c.Data)%2)
	}
	var hdr [12]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], size)
	copy(hdr[8:12], "WAVE")
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, c := range chunks {
		if len(c.ID) != 4 {
			return fmt.Errorf("%w: chunk id %q", ErrMalformedChunk, c.ID)
		}
		var ch [8]byte
		copy(ch[0:4], c.ID)
		binary.LittleEndian.PutUint32(ch[4:8], uint32(len(c.Data)))
		if _, err := w.Write(ch[:]); err != nil {
			return err
		}
		if _, err := w.Write(c.Data); err != nil {
			return err
		}
		if len(c.Data)%2 == 1 {
			if _, err := w.Write([]byte{0}); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatChunk encodes f as a fmt chunk.
func FormatChunk(f Format) Chunk {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, f)
	return Chunk{ID: "fmt ", Data: buf.Bytes()}
}

// RequireADM checks that f carries both chna and axml chunks.
func (f *File) RequireADM() error {
	switch {
	case f.AXML == nil:
		return fmt.Errorf("%w: axml", ErrMissingChunk)
	case f.Chna == nil:
		return fmt.Errorf("%w: chna", ErrMissingChunk)
	}
	return nil
}
