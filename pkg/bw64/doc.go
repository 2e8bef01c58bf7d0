// Package bw64 reads the ADM metadata chunks of BW64 (ITU-R BS.2088),
// RF64 and RIFF WAVE files.
//
// Only the chunks needed to drive segmentation are decoded: fmt (for the
// audio length), chna (the track allocation table) and axml (the ADM XML
// document). Audio samples are skipped.
//
//	f, err := bw64.ReadFile("programme.wav")
//	if err != nil {
//	    return err
//	}
//	if err := f.RequireADM(); err != nil {
//	    return err
//	}
//	doc, err := io.ReadDocument(bytes.NewReader(f.AXML))
package bw64
