/*
NAME
  headers_test.go

DESCRIPTION
  headers_test.go provides testing for MPEG-2 header field access.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/dcp/codec/codecutil"
)

func TestParseSequence(t *testing.T) {
	reserved := append([]byte(nil), seqHeader...)
	reserved[7] = 0x39

	// Size, bit rate and frame rate extensions all set.
	wideExt := []byte{0x00, 0x00, 0x01, 0xb5, 0x14, 0x8c, 0xc0, 0x07, 0x00, 0xa0}

	tests := []struct {
		name    string
		headers [][]byte
		want    VideoDescriptor
		wantErr error
	}{
		{
			name:    "sequence header",
			headers: [][]byte{seqHeader},
			want: VideoDescriptor{
				EditRate:       codecutil.EditRate24,
				FrameRate:      codecutil.EditRate24,
				BitRate:        4000000,
				HorizontalSize: 1920,
				VerticalSize:   1080,
				AspectRatio:    3,
			},
		},
		{
			name:    "with extension",
			headers: [][]byte{seqHeader, seqExt},
			want: VideoDescriptor{
				EditRate:        codecutil.EditRate24,
				FrameRate:       codecutil.EditRate24,
				BitRate:         4000000,
				HorizontalSize:  1920,
				VerticalSize:    1080,
				AspectRatio:     3,
				ProfileAndLevel: 0x48,
				ChromaFormat:    1,
				Progressive:     true,
			},
		},
		{
			name:    "extension fields",
			headers: [][]byte{seqHeader, wideExt},
			want: VideoDescriptor{
				EditRate:        codecutil.Rational{Numerator: 48, Denominator: 1},
				FrameRate:       codecutil.Rational{Numerator: 48, Denominator: 1},
				BitRate:         4000000 + 3<<18*400,
				HorizontalSize:  1920 | 1<<12,
				VerticalSize:    1080 | 2<<12,
				AspectRatio:     3,
				ProfileAndLevel: 0x48,
				ChromaFormat:    2,
				Progressive:     true,
				LowDelay:        true,
			},
		},
		{
			name:    "reserved frame rate",
			headers: [][]byte{reserved},
			wantErr: codecutil.ErrFormat,
		},
		{
			name:    "short header",
			headers: [][]byte{seqHeader[:sequenceHeaderLen-1]},
			wantErr: codecutil.ErrFormat,
		},
		{
			name:    "short extension",
			headers: [][]byte{seqHeader, seqExt[:sequenceExtLen-1]},
			wantErr: codecutil.ErrFormat,
		},
	}

	for _, test := range tests {
		var got VideoDescriptor
		err := got.parseSequence(test.headers[0])
		if err == nil && len(test.headers) > 1 {
			err = got.parseSequenceExtension(test.headers[1])
		}
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%s: did not get expected error. Got: %v, Want: %v", test.name, err, test.wantErr)
			continue
		}
		if test.wantErr != nil {
			continue
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf("%s: did not get expected descriptor\n%s", test.name, cmp.Diff(test.want, got))
		}
	}
}

func TestPictureType(t *testing.T) {
	tests := []struct {
		h        []byte
		wantType FrameType
		wantTref int
		wantErr  error
	}{
		{h: picHeader(0, FrameI), wantType: FrameI},
		{h: picHeader(513, FrameB), wantType: FrameB, wantTref: 513},
		{h: picHeader(1023, FrameP), wantType: FrameP, wantTref: 1023},
		{h: picHeader(1, FrameP)[:pictureHeaderLen-1], wantErr: codecutil.ErrFormat},
	}

	for i, test := range tests {
		typ, tref, err := pictureType(test.h)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("test %d: did not get expected error. Got: %v, Want: %v", i, err, test.wantErr)
			continue
		}
		if typ != test.wantType || tref != test.wantTref {
			t.Errorf("test %d: got %v/%d, want %v/%d", i, typ, tref, test.wantType, test.wantTref)
		}
	}
}

func TestClosedGOP(t *testing.T) {
	open := append([]byte(nil), gopHeader...)
	open[7] = 0x00

	tests := []struct {
		h    []byte
		want bool
	}{
		{h: gopHeader, want: true},
		{h: open, want: false},
		{h: gopHeader[:gopHeaderLen-1], want: false},
	}

	for i, test := range tests {
		got := closedGOP(test.h)
		if got != test.want {
			t.Errorf("test %d: got %v, want %v", i, got, test.want)
		}
	}
}
