// Package archive parses the subset of the ZIP container format the search
// engine needs: enough of local file headers, central directory entries,
// digital signatures, and the end-of-central-directory record to locate
// every encrypted local file's fingerprint (spec §6).
//
// The parser is intentionally minimal: it does not validate checksums,
// does not decompress file data, and does not resolve multi-disk archives.
// It exists to turn a byte slice into fingerprints, not to be a general
// ZIP library.
package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/Asylian21/zipcrack/internal/zipcipher"
)

// Kind identifies which ZIP record a Record holds.
type Kind int

const (
	KindLocalFile Kind = iota
	KindCentralDirectory
	KindDigitalSignature
	KindEndOfCentralDirectory
)

// LocalFileHeader mirrors the fixed-size fields of a PK\x03\x04 record.
type LocalFileHeader struct {
	VersionNeededToExtract uint16
	GeneralPurposeBitFlag  uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	FileName               string
}

// IsEncrypted reports whether bit 0 of the general-purpose bit flag is set
// (spec §6): the entry carries a 12-byte PKWARE encryption preamble.
func (h LocalFileHeader) IsEncrypted() bool {
	return h.GeneralPurposeBitFlag&1 == 1
}

// LocalFile is a fully parsed local-file record.
type LocalFile struct {
	Header            LocalFileHeader
	EncryptionHeader  *[12]byte
	HasDataDescriptor bool
}

// CentralDirectoryEntry mirrors the fields of a PK\x01\x02 record that the
// engine cares about (it never reads one, but show_file-style tooling does).
type CentralDirectoryEntry struct {
	VersionMadeBy          uint16
	VersionNeededToExtract uint16
	GeneralPurposeBitFlag  uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	FileName               string
}

// EndOfCentralDirectory mirrors a PK\x05\x06 record.
type EndOfCentralDirectory struct {
	DiskNum              uint16
	DiskNumStartCD       uint16
	CDNumEntriesCurDisk  uint16
	CDNumEntries         uint16
	CDSize               uint32
	CDOffset             uint32
	ZipFileComment       []byte
}

// Record is one parsed ZIP container entry. Exactly one of the payload
// fields is populated, selected by Kind — the Go analogue of the Rust
// original's Record enum (original_source/src/zipfile.rs).
type Record struct {
	Kind                  Kind
	LocalFile             *LocalFile
	CentralDirectoryEntry *CentralDirectoryEntry
	EndOfCentralDirectory *EndOfCentralDirectory
}

var (
	sigLocalFile    = [4]byte{'P', 'K', 0x03, 0x04}
	sigCentralDir   = [4]byte{'P', 'K', 0x01, 0x02}
	sigDataDescr    = [4]byte{'P', 'K', 0x07, 0x08}
	sigEndCentralDr = [4]byte{'P', 'K', 0x05, 0x06}
)

// Parse walks data and returns every record it recognizes, in file order,
// per spec §6. It returns an error (a Configuration/archive-parse error per
// spec §7) the first time it can't make sense of what's left.
func Parse(data []byte) ([]Record, error) {
	total := len(data)
	var records []Record
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("archive: %d trailing bytes are not a record", len(data))
		}
		var sig [4]byte
		copy(sig[:], data[:4])

		var (
			rec  Record
			rest []byte
			err  error
		)
		switch sig {
		case sigLocalFile:
			rec, rest, err = parseLocalFile(data)
		case sigCentralDir:
			rec, rest, err = parseCentralDirectory(data)
		case sigDataDescr:
			// A bare digital-signature record shares PK\x07\x08 with the
			// data descriptor that parseLocalFile already consumes; only
			// reached here when a standalone signature record appears.
			rec, rest, err = parseDigitalSignature(data)
		case sigEndCentralDr:
			rec, rest, err = parseEndOfCentralDirectory(data)
		default:
			return nil, fmt.Errorf("archive: unrecognized record signature % x at offset %d", sig, total-len(data))
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		data = rest
	}
	return records, nil
}

func take(data []byte, n int) ([]byte, []byte, error) {
	if len(data) < n {
		return nil, nil, fmt.Errorf("archive: need %d bytes, have %d", n, len(data))
	}
	return data[:n], data[n:], nil
}

func parseLocalFile(data []byte) (Record, []byte, error) {
	rest, err := skipTag(data, sigLocalFile)
	if err != nil {
		return Record{}, nil, err
	}

	fixed, rest, err := take(rest, 2*5+4*3)
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: local file header: %w", err)
	}
	h := LocalFileHeader{
		VersionNeededToExtract: binary.LittleEndian.Uint16(fixed[0:2]),
		GeneralPurposeBitFlag:  binary.LittleEndian.Uint16(fixed[2:4]),
		CompressionMethod:      binary.LittleEndian.Uint16(fixed[4:6]),
		LastModFileTime:        binary.LittleEndian.Uint16(fixed[6:8]),
		LastModFileDate:        binary.LittleEndian.Uint16(fixed[8:10]),
		CRC32:                  binary.LittleEndian.Uint32(fixed[10:14]),
		CompressedSize:         binary.LittleEndian.Uint32(fixed[14:18]),
		UncompressedSize:       binary.LittleEndian.Uint32(fixed[18:22]),
	}

	lenFields, rest, err := take(rest, 4)
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: local file header lengths: %w", err)
	}
	nameLen := binary.LittleEndian.Uint16(lenFields[0:2])
	extraLen := binary.LittleEndian.Uint16(lenFields[2:4])

	nameBytes, rest, err := take(rest, int(nameLen))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: local file name: %w", err)
	}
	h.FileName = string(nameBytes)

	_, rest, err = take(rest, int(extraLen))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: local file extra field: %w", err)
	}

	compressedSize := int(h.CompressedSize)
	lf := LocalFile{Header: h}
	if h.IsEncrypted() {
		var hdr [12]byte
		var encBytes []byte
		encBytes, rest, err = take(rest, 12)
		if err != nil {
			return Record{}, nil, fmt.Errorf("archive: encryption header: %w", err)
		}
		copy(hdr[:], encBytes)
		lf.EncryptionHeader = &hdr
		compressedSize -= 12
	}
	if compressedSize < 0 {
		return Record{}, nil, fmt.Errorf("archive: compressed size underflows encryption header")
	}

	_, rest, err = take(rest, compressedSize)
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: file data: %w", err)
	}

	if h.IsEncrypted() {
		var descr []byte
		descr, rest, err = take(rest, 4+4*3)
		if err != nil {
			return Record{}, nil, fmt.Errorf("archive: data descriptor: %w", err)
		}
		if [4]byte(descr[0:4]) != sigDataDescr {
			return Record{}, nil, fmt.Errorf("archive: expected data descriptor signature")
		}
		lf.HasDataDescriptor = true
	}

	return Record{Kind: KindLocalFile, LocalFile: &lf}, rest, nil
}

func parseCentralDirectory(data []byte) (Record, []byte, error) {
	rest, err := skipTag(data, sigCentralDir)
	if err != nil {
		return Record{}, nil, err
	}
	fixed, rest, err := take(rest, 2*6+4*3+2*5+4*2)
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: central directory header: %w", err)
	}
	e := CentralDirectoryEntry{
		VersionMadeBy:          binary.LittleEndian.Uint16(fixed[0:2]),
		VersionNeededToExtract: binary.LittleEndian.Uint16(fixed[2:4]),
		GeneralPurposeBitFlag:  binary.LittleEndian.Uint16(fixed[4:6]),
		CompressionMethod:      binary.LittleEndian.Uint16(fixed[6:8]),
		LastModFileTime:        binary.LittleEndian.Uint16(fixed[8:10]),
		LastModFileDate:        binary.LittleEndian.Uint16(fixed[10:12]),
		CRC32:                  binary.LittleEndian.Uint32(fixed[12:16]),
		CompressedSize:         binary.LittleEndian.Uint32(fixed[16:20]),
		UncompressedSize:       binary.LittleEndian.Uint32(fixed[20:24]),
	}
	nameLen := binary.LittleEndian.Uint16(fixed[24:26])
	extraLen := binary.LittleEndian.Uint16(fixed[26:28])
	commentLen := binary.LittleEndian.Uint16(fixed[28:30])

	nameBytes, rest, err := take(rest, int(nameLen))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: central directory file name: %w", err)
	}
	e.FileName = string(nameBytes)

	_, rest, err = take(rest, int(extraLen))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: central directory extra field: %w", err)
	}
	_, rest, err = take(rest, int(commentLen))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: central directory comment: %w", err)
	}

	return Record{Kind: KindCentralDirectory, CentralDirectoryEntry: &e}, rest, nil
}

func parseDigitalSignature(data []byte) (Record, []byte, error) {
	rest, err := skipTag(data, sigDataDescr)
	if err != nil {
		return Record{}, nil, err
	}
	sizeBytes, rest, err := take(rest, 2)
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: digital signature size: %w", err)
	}
	size := binary.LittleEndian.Uint16(sizeBytes)
	_, rest, err = take(rest, int(size))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: digital signature data: %w", err)
	}
	return Record{Kind: KindDigitalSignature}, rest, nil
}

func parseEndOfCentralDirectory(data []byte) (Record, []byte, error) {
	rest, err := skipTag(data, sigEndCentralDr)
	if err != nil {
		return Record{}, nil, err
	}
	fixed, rest, err := take(rest, 2*4+4*2+2)
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: end of central directory: %w", err)
	}
	eocd := EndOfCentralDirectory{
		DiskNum:             binary.LittleEndian.Uint16(fixed[0:2]),
		DiskNumStartCD:      binary.LittleEndian.Uint16(fixed[2:4]),
		CDNumEntriesCurDisk: binary.LittleEndian.Uint16(fixed[4:6]),
		CDNumEntries:        binary.LittleEndian.Uint16(fixed[6:8]),
		CDSize:              binary.LittleEndian.Uint32(fixed[8:12]),
		CDOffset:            binary.LittleEndian.Uint32(fixed[12:16]),
	}
	commentLen := binary.LittleEndian.Uint16(fixed[16:18])
	comment, rest, err := take(rest, int(commentLen))
	if err != nil {
		return Record{}, nil, fmt.Errorf("archive: end of central directory comment: %w", err)
	}
	eocd.ZipFileComment = comment

	return Record{Kind: KindEndOfCentralDirectory, EndOfCentralDirectory: &eocd}, rest, nil
}

func skipTag(data []byte, sig [4]byte) ([]byte, error) {
	body, rest, err := take(data, 4)
	if err != nil {
		return nil, err
	}
	if [4]byte(body) != sig {
		return nil, fmt.Errorf("archive: expected signature % x, got % x", sig, body)
	}
	return rest, nil
}

// Fingerprints extracts one zipcipher.EntryFingerprint per encrypted local
// file record; records without an encryption header are ignored (spec §3,
// §6).
func Fingerprints(records []Record) []zipcipher.EntryFingerprint {
	var out []zipcipher.EntryFingerprint
	for _, r := range records {
		if r.Kind != KindLocalFile || r.LocalFile.EncryptionHeader == nil {
			continue
		}
		out = append(out, zipcipher.EntryFingerprint{
			EncryptionHeader: *r.LocalFile.EncryptionHeader,
			LastModFileTime:  r.LocalFile.Header.LastModFileTime,
		})
	}
	return out
}
