/*
NAME
  list.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

// All essence types understood by the parsers.
// When adding or removing a type from this list, the IsValid function below must be updated.
const (
	Unknown = ""
	JP2K    = "jp2k"   // JPEG 2000 codestream, one file per frame.
	PCM     = "pcm"    // WAV or AIFF PCM audio.
	Atmos   = "atmos"  // PCM mixed into an immersive layout with a sync channel.
	MPEG2   = "mpeg2"  // MPEG-2 video elementary stream.
	MPEGTS  = "mpegts" // MPEG-2 video carried in an MPEG transport stream.
)

// IsValid checks if a string is a known and valid essence type.
func IsValid(s string) bool {
	switch s {
	case JP2K, PCM, Atmos, MPEG2, MPEGTS:
		return true
	default:
		return false
	}
}
