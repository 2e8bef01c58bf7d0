// Package io reads and writes ADM documents and S-ADM frames as XML.
//
// # Overview
//
// Documents use the ITU-R BS.2076 audioFormatExtended structure, wrapped in
// EBU Core (ebuCoreMain/coreMetadata/format) by default or in
// ituADM/coreMetadata/format with [Options.ITUStructure]. Frames follow
// ITU-R BS.2125:
//
//	<frame version="ITU-R_BS.2125-1">
//	  <frameHeader>
//	    <frameFormat frameFormatID="FF_00000000001" start="00:00:00.000000000" duration="00:00:01.000000000" type="full"/>
//	    <transportTrackFormat transportID="TP_0001" numIDs="1" numTracks="1">
//	      <audioTrack trackID="1">
//	        <audioTrackUIDRef>ATU_00000001</audioTrackUIDRef>
//	      </audioTrack>
//	    </transportTrackFormat>
//	  </frameHeader>
//	  <audioFormatExtended version="ITU-R_BS.2076-2">...</audioFormatExtended>
//	</frame>
//
// # Modelled Data
//
// Identifiers, names, programme start/end, object start/duration, pack and
// channel type definitions, references (the *IDRef elements) and block
// format ID/rtime/duration are interpreted. All other attributes and child
// elements, including the type-specific payload of block formats, are kept
// verbatim and written back unchanged.
//
// # Import
//
// [ReadDocument] and [ImportDocument] accept any wrapper; they locate the
// audioFormatExtended element. [ReadFrame] and [ImportFrame] require a
// frame root. Parsing validates identifiers, timecodes and that every
// reference resolves.
//
// # Export
//
// [WriteDocument], [WriteFrame] and their file and byte variants write
// entities grouped by kind in top-down order. Times are written as
// hh:mm:ss.fffffffff. Output is deterministic: writing the result of a read
// reproduces the same bytes.
package io
