package zipcipher

// VectorState holds 8 independent CipherStates as lane-wise arrays, used by
// the "last character unrolled" search driver (spec §4.2). Each lane is an
// ordinary, independent cipher instance; lifting the scalar state to 8-wide
// arrays lets a single loop body update all 8 lanes and lets the Go
// compiler autovectorize the lane-wise arithmetic, which is the contract
// this package promises: bit-identical output to 8 separate scalar
// CipherState calls fed the same per-lane input.
type VectorState struct {
	K0, K1, K2 [8]uint32
}

// Broadcast returns a VectorState with every lane initialized to s.
func Broadcast(s CipherState) VectorState {
	var v VectorState
	for i := 0; i < 8; i++ {
		v.K0[i] = s.K0
		v.K1[i] = s.K1
		v.K2[i] = s.K2
	}
	return v
}

// Update advances all 8 lanes, each with its own input byte.
func (v *VectorState) Update(c [8]byte) {
	for i := 0; i < 8; i++ {
		v.K0[i] = crc32Advance(v.K0[i], c[i])
		v.K1[i] += v.K0[i] & 0xFF
		v.K1[i] = v.K1[i]*134775813 + 1
		v.K2[i] = crc32Advance(v.K2[i], byte(v.K1[i]>>24))
	}
}

// KeystreamBytes returns the next keystream byte for every lane.
func (v *VectorState) KeystreamBytes() [8]byte {
	var out [8]byte
	for i := 0; i < 8; i++ {
		t := uint16(v.K2[i]&0xFFFF) | 2
		out[i] = byte((uint32(t) * uint32(t^1)) >> 8)
	}
	return out
}

// PasswordBlock is the unit of work for the vectorized inner loop: a
// borrowed password prefix, the alphabet pre-chunked into groups of 8
// (final chunk padded by repeating its last byte), and the cipher state
// after consuming the prefix (spec §3).
type PasswordBlock struct {
	Prefix          []byte
	ChunkedAlphabet [][8]byte
	PrefixState     CipherState
}

// MatchChunk feeds one 8-byte alphabet chunk as the block's last character
// and reports, per lane, whether the resulting password matches f. This is
// the vectorized analogue of EntryFingerprint.Matches (spec §4.5).
func MatchChunk(block PasswordBlock, chunk [8]byte, f EntryFingerprint) (matches [8]bool) {
	state := Broadcast(block.PrefixState)
	state.Update(chunk)

	var decrypted [12][8]byte
	for pos := 0; pos < 12; pos++ {
		ks := state.KeystreamBytes()
		var plain [8]byte
		for lane := 0; lane < 8; lane++ {
			plain[lane] = f.EncryptionHeader[pos] ^ ks[lane]
		}
		state.Update(plain)
		decrypted[pos] = plain
	}

	want := [2]byte{byte(f.LastModFileTime), byte(f.LastModFileTime >> 8)}
	for lane := 0; lane < 8; lane++ {
		matches[lane] = decrypted[10][lane] == want[0] && decrypted[11][lane] == want[1]
	}
	return matches
}
