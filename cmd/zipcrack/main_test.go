package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Asylian21/zipcrack/internal/config"
	"github.com/Asylian21/zipcrack/internal/zipcipher"
)

// encryptHeader produces a genuine PKWARE-encrypted 12-byte preamble for
// password, with the last two plaintext bytes set to lastModFileTime's
// little-endian encoding, so an end-to-end test can drive a real archive
// without needing a hand-computed fixture.
func encryptHeader(password []byte, lastModFileTime uint16) [12]byte {
	plain := [12]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, byte(lastModFileTime), byte(lastModFileTime >> 8)}

	state := zipcipher.InitKeys(password)
	var cipher [12]byte
	for i, p := range plain {
		cipher[i] = p ^ state.KeystreamByte()
		state.Update(p)
	}
	return cipher
}

func writeSingleEntryArchive(t *testing.T, path string, password []byte, lastModFileTime uint16) {
	t.Helper()
	header := encryptHeader(password, lastModFileTime)

	var buf bytes.Buffer
	buf.Write([]byte{'P', 'K', 0x03, 0x04})
	write16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	write32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	write16(20)
	write16(1) // encrypted
	write16(0)
	write16(lastModFileTime)
	write16(0)
	write32(0)
	write32(12)
	write32(0)
	write16(uint16(len("a.txt")))
	write16(0)
	buf.WriteString("a.txt")
	buf.Write(header[:])
	buf.Write([]byte{'P', 'K', 0x07, 0x08})
	write32(0)
	write32(12)
	write32(0)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunCompletesOnArchiveWithKnownPassword(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "test.zip")
	writeSingleEntryArchive(t, archivePath, []byte("ab"), 40784)

	conf := &config.Conf{
		Alphabet:   "custom:ab",
		MinLength:  1,
		MaxLength:  2,
		NumThreads: 1,
		LogFile:    filepath.Join(dir, "log.json"),
	}

	if err := run(conf, archivePath); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunRejectsUnencryptedArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "plain.zip")

	var buf bytes.Buffer
	buf.Write([]byte{'P', 'K', 0x03, 0x04})
	write16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	write32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	write16(20)
	write16(0)
	write16(0)
	write16(0)
	write16(0)
	write32(0)
	write32(3)
	write32(3)
	write16(uint16(len("b.txt")))
	write16(0)
	buf.WriteString("b.txt")
	buf.WriteString("abc")
	if err := os.WriteFile(archivePath, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	conf := &config.Conf{
		Alphabet:   "custom:ab",
		MinLength:  1,
		MaxLength:  2,
		NumThreads: 1,
		LogFile:    filepath.Join(dir, "log.json"),
	}
	if err := run(conf, archivePath); err == nil {
		t.Fatal("expected an error for an archive with no encrypted entries")
	}
}
