package serial

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/exepirit/loratext/pkg/loratext"
)

const (
	fieldFrequency protowire.Number = 1
	fieldSyncWord  protowire.Number = 2
)

// MarshalSettings encodes radio settings as a protobuf message: frequency in field 1, sync word in field 2.
func MarshalSettings(settings loratext.RadioSettings) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldFrequency, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(settings.Frequency))
	b = protowire.AppendTag(b, fieldSyncWord, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(settings.SyncWord))
	return b
}

// UnmarshalSettings decodes a message produced by MarshalSettings. Unknown fields are skipped.
func UnmarshalSettings(b []byte) (loratext.RadioSettings, error) {
	var settings loratext.RadioSettings
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return settings, fmt.Errorf("bad tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType || (num != fieldFrequency && num != fieldSyncWord) {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return settings, fmt.Errorf("bad field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return settings, fmt.Errorf("bad field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldFrequency:
			settings.Frequency = uint32(v)
		case fieldSyncWord:
			settings.SyncWord = uint8(v)
		}
	}
	return settings, nil
}
