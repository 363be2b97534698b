// Package search connects the password enumerator to the PKWARE cipher
// check, in two modes: scalar (one candidate at a time) and unrolled (one
// prefix, eight last-characters checked per iteration) (spec §4.4, §4.5).
package search

import (
	"bytes"
	"fmt"

	"github.com/Asylian21/zipcrack/internal/enumerator"
	"github.com/Asylian21/zipcrack/internal/zipcipher"
)

// ScalarDriver tests one full-length candidate per step against every
// fingerprint.
type ScalarDriver struct {
	enum *enumerator.Enumerator
	fps  []zipcipher.EntryFingerprint
}

// NewScalarDriver builds a driver over cfg's unmodified length bounds,
// shard-striped at shardIndex (spec §4.4: scalar mode leaves min_length
// and max_length untouched).
func NewScalarDriver(cfg enumerator.Config, shardIndex int, fps []zipcipher.EntryFingerprint) (*ScalarDriver, error) {
	if len(fps) == 0 {
		return nil, fmt.Errorf("search: at least one fingerprint is required")
	}
	e, err := enumerator.New(cfg, shardIndex)
	if err != nil {
		return nil, fmt.Errorf("search: scalar driver: %w", err)
	}
	return &ScalarDriver{enum: e, fps: fps}, nil
}

// CounterIncrement is the amount the shared attempt counter advances per
// Next call (spec §4.6): one per scalar attempt.
func (d *ScalarDriver) CounterIncrement() uint64 { return 1 }

// Next tests the next candidate in this shard against every fingerprint.
// ok is false once the shard is exhausted.
func (d *ScalarDriver) Next() (password []byte, matched bool, ok bool) {
	pw, state, ok := d.enum.Next()
	if !ok {
		return nil, false, false
	}
	matched = true
	for _, fp := range d.fps {
		if !fp.Matches(state) {
			matched = false
			break
		}
	}
	return pw, matched, true
}

// UnrolledDriver tests a whole 8-lane alphabet chunk per prefix, per step.
type UnrolledDriver struct {
	enum        *enumerator.Enumerator
	chunked     [][8]byte
	fps         []zipcipher.EntryFingerprint
	alphabetLen int
}

// NewUnrolledDriver builds a driver over an enumerator one character
// shorter than cfg in both bounds, with the final character delegated to
// the vectorized inner loop (spec §4.4). As in the reference
// implementation, a start_password's last character is dropped rather
// than validated against the shortened bounds — an intentional imprecision
// preserved from original_source/src/password_iter.rs, not a bug to fix.
func NewUnrolledDriver(cfg enumerator.Config, shardIndex int, fps []zipcipher.EntryFingerprint) (*UnrolledDriver, error) {
	if len(fps) == 0 {
		return nil, fmt.Errorf("search: at least one fingerprint is required")
	}

	unrolledCfg := cfg
	unrolledCfg.MinLength = decrementFloor(cfg.MinLength)
	unrolledCfg.MaxLength = decrementFloor(cfg.MaxLength)
	if len(cfg.StartPassword) > 0 {
		unrolledCfg.StartPassword = cfg.StartPassword[:len(cfg.StartPassword)-1]
	}

	e, err := enumerator.New(unrolledCfg, shardIndex)
	if err != nil {
		return nil, fmt.Errorf("search: unrolled driver: %w", err)
	}

	return &UnrolledDriver{
		enum:        e,
		chunked:     chunkAlphabet(cfg.Alphabet),
		fps:         fps,
		alphabetLen: len(cfg.Alphabet),
	}, nil
}

func decrementFloor(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

// chunkAlphabet groups alphabet into 8-byte chunks, padding the final
// chunk by repeating its last element (spec §4.4).
func chunkAlphabet(alphabet []byte) [][8]byte {
	var chunks [][8]byte
	for i := 0; i < len(alphabet); i += 8 {
		end := i + 8
		if end > len(alphabet) {
			end = len(alphabet)
		}
		slice := alphabet[i:end]
		var chunk [8]byte
		last := slice[len(slice)-1]
		for j := range chunk {
			chunk[j] = last
		}
		copy(chunk[:], slice)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// CounterIncrement is the amount the shared attempt counter advances per
// NextBlock call: the full alphabet size, since a block tests every
// alphabet character as the last position (spec §4.6).
func (d *UnrolledDriver) CounterIncrement() uint64 { return uint64(d.alphabetLen) }

// NextBlock enumerates the next prefix, checks every chunk of the
// alphabet against every fingerprint with early-abort consensus (spec
// §4.5), and returns the de-duplicated full passwords that matched all of
// them. ok is false once the shard is exhausted.
func (d *UnrolledDriver) NextBlock() (prefix []byte, matches [][]byte, ok bool) {
	pw, state, ok := d.enum.Next()
	if !ok {
		return nil, nil, false
	}

	block := zipcipher.PasswordBlock{Prefix: pw, PrefixState: state}

	var matchSet []byte
	for i, fp := range d.fps {
		var lanes []byte
		for _, chunk := range d.chunked {
			lane := zipcipher.MatchChunk(block, chunk, fp)
			for l := 0; l < 8; l++ {
				if lane[l] {
					lanes = append(lanes, chunk[l])
				}
			}
		}
		if i == 0 {
			matchSet = lanes
		} else {
			matchSet = intersectBytes(matchSet, lanes)
		}
		if len(matchSet) == 0 {
			return pw, nil, true
		}
	}

	var out [][]byte
	for _, c := range matchSet {
		full := append(append([]byte(nil), pw...), c)
		if len(out) > 0 && bytes.Equal(out[len(out)-1], full) {
			continue
		}
		out = append(out, full)
	}
	return pw, out, true
}

// intersectBytes returns the elements of a that also occur in b, keeping
// a's order and duplicates.
func intersectBytes(a, b []byte) []byte {
	present := make(map[byte]bool, len(b))
	for _, c := range b {
		present[c] = true
	}
	var out []byte
	for _, c := range a {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}
