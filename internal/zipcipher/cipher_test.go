package zipcipher

import (
	"sort"
	"testing"
)

const base64Alphabet = "+/0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func testFingerprint() EntryFingerprint {
	return EntryFingerprint{
		EncryptionHeader: [12]byte{147, 150, 41, 25, 165, 183, 31, 129, 76, 121, 70, 196},
		LastModFileTime:  40784,
	}
}

// TestThreeCharacterSearchSpace reproduces the reference three-character
// base64 search described by the spec: the complete matching set must be
// exactly the 7 listed passwords, no more, no fewer.
func TestThreeCharacterSearchSpace(t *testing.T) {
	fp := testFingerprint()
	var found [][]byte

	for i := 0; i < len(base64Alphabet); i++ {
		for j := 0; j < len(base64Alphabet); j++ {
			for k := 0; k < len(base64Alphabet); k++ {
				pw := []byte{base64Alphabet[i], base64Alphabet[j], base64Alphabet[k]}
				state := InitKeys(pw)
				if fp.Matches(state) {
					found = append(found, pw)
				}
			}
		}
	}

	expected := [][]byte{
		{51, 98, 119},
		{53, 90, 120},
		{73, 87, 89},
		{77, 51, 101},
		{80, 54, 49},
		{101, 86, 119},
		{115, 72, 68},
	}

	if len(found) != len(expected) {
		t.Fatalf("got %d matches, want %d: %v", len(found), len(expected), found)
	}
	sort.Slice(found, func(i, j int) bool { return string(found[i]) < string(found[j]) })
	sort.Slice(expected, func(i, j int) bool { return string(expected[i]) < string(expected[j]) })
	for i := range expected {
		if string(found[i]) != string(expected[i]) {
			t.Fatalf("mismatch at %d: got %q, want %q", i, found[i], expected[i])
		}
	}
}

// TestVectorMatchesScalar checks that the 8-lane vector path agrees with 8
// independent scalar checks fed the same inputs (spec §4.2, §8).
func TestVectorMatchesScalar(t *testing.T) {
	fp := testFingerprint()
	prefix := []byte("I")
	prefixState := InitKeys(prefix)

	var chunk [8]byte
	copy(chunk[:], []byte("WYabcde"))

	block := PasswordBlock{Prefix: prefix, PrefixState: prefixState}
	vectorMatches := MatchChunk(block, chunk, fp)

	for lane := 0; lane < 8; lane++ {
		full := append(append([]byte{}, prefix...), chunk[lane])
		scalarState := InitKeys(full)
		want := fp.Matches(scalarState)
		if vectorMatches[lane] != want {
			t.Errorf("lane %d (%q): vector=%v scalar=%v", lane, full, vectorMatches[lane], want)
		}
	}
}

func TestKeystreamByteIsDeterministic(t *testing.T) {
	s := NewCipherState()
	s.Update('a')
	b1 := s.KeystreamByte()
	b2 := s.KeystreamByte()
	if b1 != b2 {
		t.Fatalf("KeystreamByte must be a pure function of state: got %v then %v", b1, b2)
	}
}
