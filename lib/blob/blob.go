// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package blob frames the payload bytes stored in the local database.
//
// A frame is a 1-byte compression tag, a 4-byte big-endian
// uncompressed length, and the (possibly compressed) body. Frames are
// self-describing: the reader never needs out-of-band knowledge of
// how a payload was written, so the packing policy can change without
// a migration.
//
// Packing policy: tiny payloads are stored raw (compression overhead
// exceeds the saving), mid-sized payloads use LZ4 (the encode cost
// sits on the synchronous insert path, so speed wins), and large
// payloads use zstd (itinerary and manifest blobs are text-heavy CBOR
// where the better ratio pays off). Incompressible bodies fall back
// to raw storage.
package blob

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies the compression algorithm of a frame body. Stored
// on disk — values are format constants and must not be renumbered.
type Tag uint8

const (
	// TagNone marks an uncompressed body.
	TagNone Tag = 0

	// TagLZ4 marks an LZ4 block-compressed body.
	TagLZ4 Tag = 1

	// TagZstd marks a zstd-compressed body (default level).
	TagZstd Tag = 2
)

// String returns the tag's human-readable name.
func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagLZ4:
		return "lz4"
	case TagZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

const headerSize = 5

// Size thresholds for the packing policy.
const (
	rawLimit = 64
	lz4Limit = 4096
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("blob: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("blob: zstd decoder initialization failed: " + err.Error())
	}
}

// Pack frames data using the size-based packing policy.
func Pack(data []byte) []byte {
	switch {
	case len(data) < rawLimit:
		return frame(TagNone, data, data)
	case len(data) < lz4Limit:
		bound := lz4.CompressBlockBound(len(data))
		compressed := make([]byte, bound)
		written, err := lz4.CompressBlock(data, compressed, nil)
		// written == 0 means incompressible; store raw.
		if err != nil || written == 0 || written >= len(data) {
			return frame(TagNone, data, data)
		}
		return frame(TagLZ4, data, compressed[:written])
	default:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return frame(TagNone, data, data)
		}
		return frame(TagZstd, data, compressed)
	}
}

// Unpack reverses Pack, returning the original payload bytes.
func Unpack(framed []byte) ([]byte, error) {
	if len(framed) < headerSize {
		return nil, fmt.Errorf("blob: frame too short (%d bytes)", len(framed))
	}
	tag := Tag(framed[0])
	size := int(binary.BigEndian.Uint32(framed[1:headerSize]))
	body := framed[headerSize:]

	switch tag {
	case TagNone:
		if len(body) != size {
			return nil, fmt.Errorf("blob: raw body is %d bytes, header says %d", len(body), size)
		}
		return body, nil

	case TagLZ4:
		out := make([]byte, size)
		read, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("blob: lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("blob: lz4 produced %d bytes, header says %d", read, size)
		}
		return out, nil

	case TagZstd:
		out, err := zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("blob: zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("blob: zstd produced %d bytes, header says %d", len(out), size)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("blob: unsupported compression tag %d", uint8(tag))
	}
}

// frame assembles header + body.
func frame(tag Tag, original, body []byte) []byte {
	out := make([]byte, headerSize+len(body))
	out[0] = uint8(tag)
	binary.BigEndian.PutUint32(out[1:headerSize], uint32(len(original)))
	copy(out[headerSize:], body)
	return out
}
