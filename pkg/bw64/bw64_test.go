package bw64

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func testTable() ChnaTable {
	return ChnaTable{IDs: []AudioID{
		{TrackIndex: 1, UID: "ATU_00000001", TrackRef: "AT_00031001_01", PackRef: "AP_00031001"},
		{TrackIndex: 2, UID: "ATU_00000002", TrackRef: "AT_00031002_01", PackRef: "AP_00031002"},
		{TrackIndex: 2, UID: "ATU_00000003", TrackRef: "AT_00031003_01", PackRef: "AP_00031003"},
	}}
}

func TestReadRoundTrip(t *testing.T) {
	chna, err := testTable().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	axml := []byte("<audioFormatExtended/>")
	format := Format{FormatTag: 1, Channels: 2, SampleRate: 48000, ByteRate: 192000, BlockAlign: 4, BitsPerSample: 16}
	data := make([]byte, 48000*4*2)

	var buf bytes.Buffer
	err = Write(&buf,
		FormatChunk(format),
		Chunk{ID: "chna", Data: chna},
		Chunk{ID: "axml", Data: axml},
		Chunk{ID: "data", Data: data},
	)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := f.RequireADM(); err != nil {
		t.Fatal(err)
	}
	if f.Format != format {
		t.Errorf("Format = %+v", f.Format)
	}
	if !bytes.Equal(f.AXML, axml) {
		t.Errorf("AXML = %q", f.AXML)
	}
	if got := f.Chna.NumUIDs(); got != 3 {
		t.Errorf("NumUIDs = %d", got)
	}
	if got := f.Chna.NumTracks(); got != 2 {
		t.Errorf("NumTracks = %d", got)
	}
	if got := f.Chna.IDs[1]; got != testTable().IDs[1] {
		t.Errorf("row 1 = %+v", got)
	}
	if got := f.Duration(); got != 2*time.Second {
		t.Errorf("Duration = %v", got)
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00AVI "))); !errors.Is(err, ErrNotBW64) {
		t.Errorf("err = %v, want ErrNotBW64", err)
	}
	if _, err := Read(bytes.NewReader(nil)); !errors.Is(err, ErrNotBW64) {
		t.Errorf("empty input err = %v, want ErrNotBW64", err)
	}

	var buf bytes.Buffer
	_ = Write(&buf, Chunk{ID: "axml", Data: []byte("<x/>")})
	f, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.RequireADM(); !errors.Is(err, ErrMissingChunk) {
		t.Errorf("err = %v, want ErrMissingChunk", err)
	}
}

func TestParseChnaTruncated(t *testing.T) {
	data, _ := testTable().MarshalBinary()
	if _, err := ParseChna(data[:len(data)-10]); !errors.Is(err, ErrMalformedChunk) {
		t.Errorf("err = %v, want ErrMalformedChunk", err)
	}
}
