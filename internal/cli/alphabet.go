package cli

import (
	"fmt"
	"sort"
	"strings"
)

const base64Alphabet = "+/0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ResolveAlphabet turns the raw --alphabet value into a sorted,
// deduplicated byte slice, matching
// original_source/src/opt.rs::Alphabet::from_str exactly: "base64"
// expands to the 64-character set, "custom:<letters>" sorts and
// deduplicates the given letters, anything else (or any non-ASCII input)
// is a configuration error.
func ResolveAlphabet(raw string) ([]byte, error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] > 0x7F {
			return nil, fmt.Errorf("cli: alphabet contains non-ASCII characters")
		}
	}

	if raw == "base64" {
		return []byte(base64Alphabet), nil
	}

	custom, ok := strings.CutPrefix(raw, "custom:")
	if !ok {
		return nil, fmt.Errorf("cli: invalid alphabet %q: must be \"base64\" or \"custom:<letters>\"", raw)
	}
	if custom == "" {
		return nil, fmt.Errorf("cli: custom alphabet cannot be empty")
	}

	chars := []byte(custom)
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	deduped := chars[:0]
	for i, c := range chars {
		if i == 0 || chars[i-1] != c {
			deduped = append(deduped, c)
		}
	}
	return deduped, nil
}
