// Package xxhash computes template body checksums with
// github.com/cespare/xxhash/v2.
package xxhash

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/scrapely"
)

// Checksum returns the hex encoded xxHash64 of body.
func Checksum(body string) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(body))
	return hex.EncodeToString(b[:])
}

// Stamp sets the record's checksum from its body.
func Stamp(rec *scrapely.TemplateRecord) {
	rec.Checksum = Checksum(rec.Body)
}

// Verify returns EINVALID if the record carries a checksum that does not
// match its body. Records without a checksum pass.
func Verify(rec *scrapely.TemplateRecord) error {
	if rec.Checksum == "" {
		return nil
	}
	if got := Checksum(rec.Body); got != rec.Checksum {
		return scrapely.Errorf(scrapely.EINVALID, "template %s checksum mismatch: got %s, want %s", rec.URL, got, rec.Checksum)
	}
	return nil
}
