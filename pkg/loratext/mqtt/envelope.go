package mqtt

import (
	"errors"
)

var errShortEnvelope = errors.New("envelope too short")

// An envelope is the sender client id length, the client id and the raw frame.
func encodeEnvelope(sender string, data []byte) []byte {
	buf := make([]byte, 0, 1+len(sender)+len(data))
	buf = append(buf, byte(len(sender)))
	buf = append(buf, sender...)
	return append(buf, data...)
}

func decodeEnvelope(b []byte) (string, []byte, error) {
	if len(b) < 1 || len(b) < 1+int(b[0]) {
		return "", nil, errShortEnvelope
	}
	n := int(b[0])
	data := make([]byte, len(b)-1-n)
	copy(data, b[1+n:])
	return string(b[1:1+n]), data, nil
}
