/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the kinds of error returned by the essence parsers.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import "errors"

// Error kinds. Callers should test for these using errors.Is; the errors
// actually returned carry context wrapped around them.
var (
	// ErrNotFound is returned when a file or directory is absent.
	ErrNotFound = errors.New("not found")

	// ErrSmallBuffer is returned when a destination buffer cannot hold a frame.
	// The caller should grow the buffer and try again.
	ErrSmallBuffer = errors.New("frame buffer too small")

	// ErrFormat is returned for essence that is recognisable but breaks a
	// structural rule, e.g. a JPEG 2000 image without three components.
	ErrFormat = errors.New("essence format error")

	// ErrRawEssence is returned for data that does not look like the expected
	// format at all. Format detection may try something else.
	ErrRawEssence = errors.New("unrecognised essence")

	// ErrEndOfStream is returned once all frames have been read.
	ErrEndOfStream = errors.New("end of stream")

	// ErrUninitialized is returned when an object is used before it is opened.
	ErrUninitialized = errors.New("not initialized")

	// ErrConfig is returned for unsupported parser or mixer configurations.
	ErrConfig = errors.New("invalid configuration")
)
