// Package enumerator walks the password search space in alphabetical
// order, one candidate per call, caching the PKWARE key state for every
// prefix so that lengthening a password by one character never re-keys
// from scratch (spec §4.3).
package enumerator

import (
	"fmt"

	"github.com/Asylian21/zipcrack/internal/zipcipher"
)

// Config mirrors the parts of the resolved CLI configuration the
// enumerator needs. Alphabet is assumed already sorted, deduplicated, and
// validated as ASCII by the caller (internal/cli); the
// enumerator itself only depends on it being non-empty.
type Config struct {
	Alphabet      []byte
	MinLength     int
	MaxLength     int
	StartPassword []byte
	NumThreads    int
}

func (c Config) validate() error {
	if len(c.Alphabet) == 0 {
		return fmt.Errorf("enumerator: alphabet must not be empty")
	}
	if c.MinLength < 0 || c.MaxLength < c.MinLength {
		return fmt.Errorf("enumerator: invalid length bounds [%d, %d]", c.MinLength, c.MaxLength)
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("enumerator: num_threads must be positive, got %d", c.NumThreads)
	}
	return nil
}

// Enumerator produces every password of length MinLength..MaxLength over
// Config.Alphabet, in ascending (length, then lexicographic-by-index)
// order, restricted to one out of NumThreads interleaved shards.
//
// It is not safe for concurrent use; one worker owns one Enumerator (spec
// §4.3, §4.6).
type Enumerator struct {
	cfg     Config
	charPos map[byte]int

	password []byte
	indices  []int
	// keyStack[i] is the cipher state after consuming password[:i];
	// keyStack always has len(password)+1 elements. This is the
	// key-stack invariant the search drivers rely on.
	keyStack []zipcipher.CipherState

	done bool
}

// New builds an Enumerator seeded at StartPassword (or the
// lexicographically smallest candidate of length MinLength when unset),
// then advances it by shardIndex candidates so that NumThreads
// enumerators started at shardIndex 0..NumThreads-1 partition the full
// search space with no overlap and no gap (spec §4.3).
func New(cfg Config, shardIndex int) (*Enumerator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if shardIndex < 0 || shardIndex >= cfg.NumThreads {
		return nil, fmt.Errorf("enumerator: shard index %d out of range [0, %d)", shardIndex, cfg.NumThreads)
	}

	charPos := make(map[byte]int, len(cfg.Alphabet))
	for i, c := range cfg.Alphabet {
		charPos[c] = i
	}

	var password []byte
	if cfg.StartPassword != nil {
		if len(cfg.StartPassword) < cfg.MinLength || len(cfg.StartPassword) > cfg.MaxLength {
			return nil, fmt.Errorf("enumerator: start password length %d outside [%d, %d]",
				len(cfg.StartPassword), cfg.MinLength, cfg.MaxLength)
		}
		password = append([]byte(nil), cfg.StartPassword...)
	} else {
		password = make([]byte, cfg.MinLength)
		for i := range password {
			password[i] = cfg.Alphabet[0]
		}
	}

	indices := make([]int, len(password))
	for i, c := range password {
		pos, ok := charPos[c]
		if !ok {
			return nil, fmt.Errorf("enumerator: start password byte %q is not in the alphabet", c)
		}
		indices[i] = pos
	}

	e := &Enumerator{
		cfg:      cfg,
		charPos:  charPos,
		password: password,
		indices:  indices,
		keyStack: []zipcipher.CipherState{zipcipher.NewCipherState()},
	}
	e.extendKeyStack()

	if e.addOffset(shardIndex) {
		e.done = true
	}
	return e, nil
}

// extendKeyStack extends keyStack until it again covers all of password,
// keying forward from whatever prefix is already cached.
func (e *Enumerator) extendKeyStack() {
	for len(e.keyStack) <= len(e.password) {
		i := len(e.keyStack)
		s := e.keyStack[i-1]
		s.Update(e.password[i-1])
		e.keyStack = append(e.keyStack, s)
	}
}

// addOffset advances password/indices by offset candidates, treating the
// password as a little-endian base-len(alphabet) number, growing it on
// the left when it overflows and truncating the key stack at every digit
// it touches. It reports whether the search space is exhausted.
func (e *Enumerator) addOffset(offset int) (finished bool) {
	alphabetLen := len(e.cfg.Alphabet)
	cursor := len(e.password)
	carry := offset
	for carry != 0 {
		if cursor == 0 {
			if len(e.password) == e.cfg.MaxLength {
				return true
			}
			e.indices = append([]int{0}, e.indices...)
			e.password = append([]byte{0}, e.password...)
			carry--
		} else {
			cursor--
			e.keyStack = e.keyStack[:len(e.keyStack)-1]
		}
		idx := e.indices[cursor] + carry
		carry = idx / alphabetLen
		e.indices[cursor] = idx % alphabetLen
		e.password[cursor] = e.cfg.Alphabet[e.indices[cursor]]
	}
	return false
}

// Next returns the next candidate password in this shard along with the
// cipher state after consuming it in full. ok is false once the shard has
// been exhausted; password and state are then zero values.
func (e *Enumerator) Next() (password []byte, state zipcipher.CipherState, ok bool) {
	if e.done {
		return nil, zipcipher.CipherState{}, false
	}

	e.extendKeyStack()
	out := make([]byte, len(e.password))
	copy(out, e.password)
	st := e.keyStack[len(e.password)]

	if e.addOffset(e.cfg.NumThreads) {
		e.done = true
	}
	return out, st, true
}
