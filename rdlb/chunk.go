package rdlb

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// EncodeAll and DecodeAll are safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	zstdDecoder, _ = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(MaxSectionSize))
)

// splitPayload cuts raw into chunks of at most threshold bytes (a single
// chunk when threshold is zero) and zstd-compresses each when compress
// is set. It returns the chunk table and the stored payload.
func splitPayload(raw []byte, threshold int, compress, withCRC bool) ([]ChunkEntry, []byte) {
	var chunks []ChunkEntry
	var out []byte
	for start := 0; start < len(raw); {
		end := len(raw)
		if threshold > 0 {
			end = min(start+threshold, len(raw))
		}
		part := raw[start:end]
		c := ChunkEntry{Raw: uint64(len(part))}
		if withCRC {
			c.CRC = ComputeCRC(part)
		}
		stored := part
		if compress {
			stored = zstdEncoder.EncodeAll(part, nil)
		}
		c.Stored = uint64(len(stored))
		out = append(out, stored...)
		chunks = append(chunks, c)
		start = end
	}
	return chunks, out
}

// joinPayload decompresses and verifies the chunks of payload and
// returns the raw bytes the attribute offsets refer to.
func joinPayload(m *Manifest, payload []byte) ([]byte, error) {
	var total uint64
	for _, c := range m.Chunks {
		if c.Raw > MaxSectionSize-total {
			return nil, &FormatError{Reason: "decoded payload too large", Offset: -1}
		}
		total += c.Raw
	}
	if want := m.PayloadSize(); uint64(len(payload)) != want {
		return nil, &FormatError{
			Reason: fmt.Sprintf("payload is %d bytes, manifest expects %d", len(payload), want),
			Offset: -1,
		}
	}

	raw := make([]byte, 0, total)
	off := 0
	for i, c := range m.Chunks {
		if c.Stored > uint64(len(payload)-off) {
			return nil, &FormatError{Reason: fmt.Sprintf("chunk %d overruns the payload", i), Offset: off}
		}
		stored := payload[off : off+int(c.Stored)]
		part := stored
		if m.Flags&FlagCompressed != 0 {
			var err error
			part, err = zstdDecoder.DecodeAll(stored, make([]byte, 0, c.Raw))
			if err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("chunk %d: %v", i, err), Offset: off}
			}
		}
		if uint64(len(part)) != c.Raw {
			return nil, &FormatError{
				Reason: fmt.Sprintf("chunk %d is %d bytes, manifest expects %d", i, len(part), c.Raw),
				Offset: off,
			}
		}
		if m.Flags&FlagTransient == 0 {
			if !VerifyCRC(part, c.CRC) {
				return nil, &CRCMismatchError{Chunk: i, Expected: c.CRC, Got: ComputeCRC(part)}
			}
		}
		raw = append(raw, part...)
		off += int(c.Stored)
	}
	return raw, nil
}
