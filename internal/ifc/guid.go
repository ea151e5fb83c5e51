package ifc

import "github.com/google/uuid"

// IFC compresses the 128 bits of a GUID into 22 characters of a base64
// variant: the first byte becomes two characters, then each group of three
// bytes becomes four.
const guidChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// NewGUID returns a fresh IfcGloballyUniqueId.
func NewGUID() string {
	return CompressGUID(uuid.New())
}

// CompressGUID encodes a UUID in the 22-character IFC form.
func CompressGUID(u uuid.UUID) string {
	out := make([]byte, 0, 22)
	enc := func(v uint32, chars int) {
		for i := chars - 1; i >= 0; i-- {
			out = append(out, guidChars[(v>>(6*i))&63])
		}
	}
	enc(uint32(u[0]), 2)
	for i := 1; i < 16; i += 3 {
		enc(uint32(u[i])<<16|uint32(u[i+1])<<8|uint32(u[i+2]), 4)
	}
	return string(out)
}

// ExpandGUID decodes the 22-character form back into a UUID. It reports
// false for malformed input.
func ExpandGUID(s string) (uuid.UUID, bool) {
	var u uuid.UUID
	if len(s) != 22 {
		return u, false
	}
	digit := func(c byte) (uint32, bool) {
		for i := 0; i < len(guidChars); i++ {
			if guidChars[i] == c {
				return uint32(i), true
			}
		}
		return 0, false
	}
	dec := func(part string) (uint32, bool) {
		var v uint32
		for i := 0; i < len(part); i++ {
			d, ok := digit(part[i])
			if !ok {
				return 0, false
			}
			v = v<<6 | d
		}
		return v, true
	}

	v, ok := dec(s[:2])
	if !ok || v > 0xff {
		return u, false
	}
	u[0] = byte(v)
	for g := 0; g < 5; g++ {
		v, ok := dec(s[2+g*4 : 6+g*4])
		if !ok {
			return u, false
		}
		u[1+g*3] = byte(v >> 16)
		u[2+g*3] = byte(v >> 8)
		u[3+g*3] = byte(v)
	}
	return u, true
}
