package archive

import (
	"fmt"
	"io"
)

// ShowRecords prints each parsed record, implementing --show-zipfile-records
// (spec §6). Grounded on original_source/src/zipfile.rs::show_file, adapted
// to a io.Writer instead of stdout-only println.
func ShowRecords(w io.Writer, records []Record) {
	for _, r := range records {
		switch r.Kind {
		case KindLocalFile:
			fmt.Fprintf(w, "Local file: %+v\n", r.LocalFile.Header)
			if r.LocalFile.EncryptionHeader != nil {
				fmt.Fprintf(w, "  Encryption header: % x\n", *r.LocalFile.EncryptionHeader)
			}
		case KindCentralDirectory:
			fmt.Fprintf(w, "Central directory entry: %+v\n", *r.CentralDirectoryEntry)
		case KindDigitalSignature:
			fmt.Fprintln(w, "Digital signature record")
		case KindEndOfCentralDirectory:
			fmt.Fprintf(w, "End of central directory: %+v\n", *r.EndOfCentralDirectory)
		}
	}
	fmt.Fprintln(w, "==============================================")
}
