package pipeline

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/bw64"
	pkgio "github.com/matzehuels/sadm/pkg/io"
)

// Source is a loaded input document.
type Source struct {
	// Path is the file the source was loaded from, if any.
	Path string

	Doc *adm.Document

	// Chna is the track allocation of BW64 input; nil for XML input.
	Chna *bw64.ChnaTable

	// Duration is the audio length of BW64 input; zero for XML input.
	Duration time.Duration
}

// Load reads an ADM document from path. BW64, RF64 and RIFF WAVE files are
// recognized by their header; the document is then taken from the axml
// chunk and the chna table is kept. Anything else is read as ADM XML.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.Path = path
	return src, nil
}

// Read is [Load] for a stream.
func Read(r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(4)
	if !isWave(magic) {
		doc, err := pkgio.ReadDocument(br)
		if err != nil {
			return nil, err
		}
		return &Source{Doc: doc}, nil
	}

	file, err := bw64.Read(br)
	if err != nil {
		return nil, err
	}
	if file.AXML == nil {
		return nil, fmt.Errorf("%w: axml", bw64.ErrMissingChunk)
	}
	doc, err := pkgio.ReadDocument(bytes.NewReader(file.AXML))
	if err != nil {
		return nil, fmt.Errorf("axml: %w", err)
	}
	return &Source{Doc: doc, Chna: file.Chna, Duration: file.Duration()}, nil
}

func isWave(magic []byte) bool {
	switch string(magic) {
	case "RIFF", "RF64", "BW64":
		return true
	}
	return false
}
