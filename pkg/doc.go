// Package pkg provides the libraries behind sadm, a tool that cuts an Audio
// Definition Model (ADM) document into a stream of serial ADM (S-ADM) frames
// and puts such a stream back together.
//
// # Overview
//
// A frame carries only the part of the document that is relevant to one time
// window: the audioBlockFormats that overlap it, plus every element on the
// routes that lead to them. The pkg directory is organized into three areas:
//
//  1. [adm], [adm/route], [segment], [combine] - Domain logic (model, route
//     tracing, segmentation, recombination)
//  2. [io], [bw64], [render/nodelink] - Formats (ADM XML, BW64 chunks, DOT/SVG)
//  3. [pipeline], [cache], [store], [server] - Orchestration and infrastructure
//
// # Architecture
//
// The typical data flow through sadm:
//
//	ADM XML or BW64 file
//	         ↓
//	    [io] / [bw64] (parse into an adm.Document)
//	         ↓
//	    [adm/route] (trace programme → ... → channel routes)
//	         ↓
//	    [segment] (one item per channel with its validity interval)
//	         ↓
//	    S-ADM frames → [combine] → adm.Document
//
// # Quick Start
//
// Segment a document into one second frames:
//
//	doc, _ := io.ImportDocument("scene.xml")
//	seg, _ := segment.New(doc)
//	for i := range 10 {
//	    start := time.Duration(i) * time.Second
//	    f, _ := seg.Frame(start, time.Second)
//	    io.ExportFrame(f, fmt.Sprintf("scene_%05d.xml", i+1), io.Options{})
//	}
//
// Combine the frames again:
//
//	c := combine.New()
//	for _, path := range paths {
//	    f, _ := io.ImportFrame(path)
//	    if err := c.Push(f); err != nil {
//	        return err
//	    }
//	}
//	doc := c.Document()
//
// # Main Packages
//
// [adm] - Arena of ADM elements keyed by ID, with typed references, timecodes
// and the frame header.
//
// [adm/route] - Depth-first route tracing from programmes down to channels,
// with cycle detection.
//
// [segment] - Validity intervals, block selection and frame assembly.
//
// [combine] - Merges consecutive frames, deduplicating elements and blocks.
//
// [pipeline] - Load, segment, combine and render used by both the CLI and
// the HTTP server. Frames are cached by document hash and window.
//
// [cache] - Frame cache backends: file, Redis and a no-op cache.
//
// [store] - Frame archives keyed by run ID: directory or MongoDB.
//
// [server] - HTTP access to frames of a loaded document.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/segment/...   # Specific package
//	go test -run Example        # Examples only
//
// [adm]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/adm
// [adm/route]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/adm/route
// [segment]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/segment
// [combine]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/combine
// [io]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/io
// [bw64]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/bw64
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/sadm/pkg/server
package pkg
