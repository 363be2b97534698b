package bench

import (
	"testing"

	"github.com/Asylian21/zipcrack/internal/enumerator"
	"github.com/Asylian21/zipcrack/internal/search"
	"github.com/Asylian21/zipcrack/internal/zipcipher"
)

const base64Alphabet = "+/0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func benchFingerprint() zipcipher.EntryFingerprint {
	return zipcipher.EntryFingerprint{
		EncryptionHeader: [12]byte{147, 150, 41, 25, 165, 183, 31, 129, 76, 121, 70, 196},
		LastModFileTime:  40784,
	}
}

// BenchmarkKeyUpdate benchmarks the scalar per-byte key transition, the
// innermost operation of the whole search.
func BenchmarkKeyUpdate(b *testing.B) {
	b.ReportAllocs()
	s := zipcipher.NewCipherState()
	for i := 0; i < b.N; i++ {
		s.Update(byte(i))
	}
}

// BenchmarkInitKeys benchmarks keying a password from scratch, the cost
// the enumerator's key-stack caching is designed to avoid paying on every
// candidate.
func BenchmarkInitKeys(b *testing.B) {
	b.ReportAllocs()
	pw := []byte("password7")
	for i := 0; i < b.N; i++ {
		_ = zipcipher.InitKeys(pw)
	}
}

// BenchmarkMatchesHeader benchmarks the fingerprint check against a
// 12-byte encryption header.
func BenchmarkMatchesHeader(b *testing.B) {
	b.ReportAllocs()
	fp := benchFingerprint()
	state := zipcipher.InitKeys([]byte("password"))
	for i := 0; i < b.N; i++ {
		_ = fp.Matches(state)
	}
}

// BenchmarkMatchChunk benchmarks the 8-lane vectorized block check.
func BenchmarkMatchChunk(b *testing.B) {
	b.ReportAllocs()
	fp := benchFingerprint()
	prefixState := zipcipher.InitKeys([]byte("passwor"))
	block := zipcipher.PasswordBlock{Prefix: []byte("passwor"), PrefixState: prefixState}
	var chunk [8]byte
	copy(chunk[:], "abcdefgh")
	for i := 0; i < b.N; i++ {
		_ = zipcipher.MatchChunk(block, chunk, fp)
	}
}

// BenchmarkScalarEnumeration benchmarks the enumerator's amortized
// per-candidate cost, which should stay flat regardless of password
// length thanks to the key stack.
func BenchmarkScalarEnumeration(b *testing.B) {
	b.ReportAllocs()
	cfg := enumerator.Config{
		Alphabet:   []byte(base64Alphabet),
		MinLength:  1,
		MaxLength:  6,
		NumThreads: 1,
	}
	e, err := enumerator.New(cfg, 0)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if _, _, ok := e.Next(); !ok {
			e, err = enumerator.New(cfg, 0)
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkUnrolledBlock benchmarks one full prefix-plus-alphabet-chunk
// unrolled check via search.UnrolledDriver, the unit of work the progress
// counter advances by |alphabet| per iteration.
func BenchmarkUnrolledBlock(b *testing.B) {
	b.ReportAllocs()
	cfg := enumerator.Config{
		Alphabet:   []byte(base64Alphabet),
		MinLength:  1,
		MaxLength:  6,
		NumThreads: 1,
	}
	fps := []zipcipher.EntryFingerprint{benchFingerprint()}
	d, err := search.NewUnrolledDriver(cfg, 0, fps)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if _, _, ok := d.NextBlock(); !ok {
			d, err = search.NewUnrolledDriver(cfg, 0, fps)
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}
