package addressing

import (
	"strings"

	"shieldcore/shielderr"
)

// Small self-contained Bech32m (BIP-0350) codec. spec.md §1 scopes "Bech32m
// HRP tables" out as external content (we still need the wordlist/checksum
// algorithm itself, kept here since no repo in the retrieved pack imports a
// bech32 library — see DESIGN.md).

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const bech32mConst uint32 = 0x2bc830a3

func bech32Polymod(values []byte) uint32 {
	gen := []uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		b := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c)&31)
	}
	return out
}

func bech32mCreateChecksum(hrp string, data []byte) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := bech32Polymod(values) ^ bech32mConst
	checksum := make([]byte, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

func bech32mVerifyChecksum(hrp string, data []byte) bool {
	values := append(bech32HRPExpand(hrp), data...)
	return bech32Polymod(values) == bech32mConst
}

// convertBits regroups a bit string between bases, used to go between 8-bit
// payload bytes and 5-bit Bech32 words.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	var out []byte
	maxv := uint32(1<<toBits) - 1
	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, shielderr.New(shielderr.KindAddressInvalidEntityType, "invalid byte for bit conversion")
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits)&byte(maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits))&byte(maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, shielderr.New(shielderr.KindAddressInvalidEntityType, "invalid padding in bit conversion")
	}
	return out, nil
}

// bech32mEncode encodes hrp + payload (raw bytes) into a lower-case Bech32m
// string.
func bech32mEncode(hrp string, payload []byte) (string, error) {
	words, err := convertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	checksum := bech32mCreateChecksum(hrp, words)
	combined := append(words, checksum...)
	var sb strings.Builder
	sb.WriteString(hrp)
	for _, w := range combined {
		sb.WriteByte(bech32Charset[w])
	}
	return sb.String(), nil
}

// bech32mDecode splits addr at the given hrp (already resolved by the
// caller via NetworkByHRP) and returns the decoded payload bytes.
func bech32mDecode(hrp, addr string) ([]byte, error) {
	if !hasPrefix(addr, hrp) {
		return nil, shielderr.Newf(shielderr.KindAddressInvalidEntityType, "address %q does not start with hrp %q", addr, hrp)
	}
	data := addr[len(hrp):]
	if len(data) < 6 {
		return nil, shielderr.New(shielderr.KindAddressInvalidEntityType, "address too short to contain a checksum")
	}
	words := make([]byte, 0, len(data))
	for _, r := range data {
		idx := strings.IndexRune(bech32Charset, r)
		if idx < 0 {
			return nil, shielderr.Newf(shielderr.KindAddressInvalidEntityType, "invalid bech32 character %q", r)
		}
		words = append(words, byte(idx))
	}
	if !bech32mVerifyChecksum(hrp, words) {
		return nil, shielderr.New(shielderr.KindAddressInvalidEntityType, "bech32m checksum mismatch")
	}
	payload, err := convertBits(words[:len(words)-6], 5, 8, false)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
