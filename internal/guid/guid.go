package guid

import (
	"crypto/sha1"
	"fmt"
	"strconv"
	"strings"
)

// FieldSeparator is the byte Anki uses between field values in notes.flds.
// It is reserved: field content must never contain it.
const FieldSeparator = "\x1f"

// JoinFields joins a note's field values with the reserved separator.
// The joined string is what guid and checksum derivation operate on.
func JoinFields(fields []string) string {
	return strings.Join(fields, FieldSeparator)
}

// SHA1Hex returns the lowercase hex SHA-1 digest of s.
// The consuming application's guid and csum formats are defined over SHA-1,
// so the digest algorithm is not interchangeable.
func SHA1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return fmt.Sprintf("%x", sum)
}

// NoteGUID derives a content fingerprint for a note from its joined fields.
// Identical field values always produce the same guid, which is what makes
// re-adding a note an update instead of a duplicate.
func NoteGUID(joinedFields string) string {
	return SHA1Hex(joinedFields)
}

// Checksum returns the first 8 hex digits of the SHA-1 digest of s,
// interpreted as a 32-bit integer. Stored in notes.csum for the consuming
// application's duplicate scanning.
func Checksum(s string) int64 {
	v, err := strconv.ParseUint(SHA1Hex(s)[:8], 16, 32)
	if err != nil {
		// SHA1Hex always yields hex digits; unreachable.
		panic(err)
	}
	return int64(v)
}
