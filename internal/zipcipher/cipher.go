// Package zipcipher implements the PKWARE traditional encryption stream
// cipher used by legacy "ZipCrypto" archive entries (APPNOTE.TXT §6.1).
//
// The cipher keeps three 32-bit words of state (k0, k1, k2). Feeding it a
// byte of plaintext (or, during decryption, the byte just recovered)
// advances all three words; the current k2 word derives the next keystream
// byte, which is XORed with ciphertext to recover plaintext.
package zipcipher

// CipherState is the three-word PKWARE key state. The zero value is not
// meaningful; use NewCipherState.
type CipherState struct {
	K0, K1, K2 uint32
}

// NewCipherState returns the state PKWARE initializes before any password
// bytes are consumed (APPNOTE.TXT §6.1.5).
func NewCipherState() CipherState {
	return CipherState{K0: 0x12345678, K1: 0x23456789, K2: 0x34567890}
}

// crcTable is the standard ZIP CRC-32 byte-advance table (reflected
// polynomial 0xEDB88320), computed once at package init.
var crcTable [256]uint32

func init() {
	const poly = 0xEDB88320
	for i := range crcTable {
		c := uint32(i)
		for bit := 0; bit < 8; bit++ {
			if c&1 != 0 {
				c = poly ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		crcTable[i] = c
	}
}

func crc32Advance(crc uint32, b byte) uint32 {
	return crcTable[byte(crc)^b] ^ (crc >> 8)
}

// Update advances the key state by one password/plaintext byte.
func (s *CipherState) Update(c byte) {
	s.K0 = crc32Advance(s.K0, c)
	s.K1 += s.K0 & 0xFF
	s.K1 = s.K1*134775813 + 1
	s.K2 = crc32Advance(s.K2, byte(s.K1>>24))
}

// KeystreamByte returns the next byte of keystream derived from k2.
func (s *CipherState) KeystreamByte() byte {
	t := uint16(s.K2&0xFFFF) | 2
	return byte((uint32(t) * uint32(t^1)) >> 8)
}

// InitKeys folds every byte of password into a fresh CipherState.
func InitKeys(password []byte) CipherState {
	state := NewCipherState()
	for _, c := range password {
		state.Update(c)
	}
	return state
}

// MatchesHeader decrypts a copy of the 12-byte encryption header starting
// from state (which must already reflect the full password) and reports
// whether the decrypted bytes 10..=11 equal the little-endian encoding of
// lastModFileTime.
//
// This implementation matches on the full two-byte encoding rather than
// only the historical single high byte APPNOTE.TXT describes — an
// intentional, stricter departure (spec §4.1, §9): archives written by
// standard tools pass it the same way, and it cuts the false-positive rate
// from 1/256 to 1/65536 per entry.
func MatchesHeader(state CipherState, header [12]byte, lastModFileTime uint16) (decrypted [12]byte, matched bool) {
	for i, c := range header {
		p := c ^ state.KeystreamByte()
		state.Update(p)
		decrypted[i] = p
	}
	want := [2]byte{byte(lastModFileTime), byte(lastModFileTime >> 8)}
	matched = decrypted[10] == want[0] && decrypted[11] == want[1]
	return decrypted, matched
}

// EntryFingerprint is the minimal per-encrypted-entry descriptor the
// search engine needs: the 12-byte encryption preamble and the verification
// field derived from the entry's last-modification time (spec §3).
type EntryFingerprint struct {
	EncryptionHeader [12]byte
	LastModFileTime  uint16
}

// Matches reports whether state (the key state after the candidate
// password) decrypts f's header to the expected verification bytes.
func (f EntryFingerprint) Matches(state CipherState) bool {
	_, ok := MatchesHeader(state, f.EncryptionHeader, f.LastModFileTime)
	return ok
}
