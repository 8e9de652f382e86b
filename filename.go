package ecsfs

import "golang.org/x/text/unicode/norm"

// validateFilename checks a filename argument per the field contract: non-
// empty, at most maxFilenameLen bytes once normalized, and representable
// NUL-terminated within the 16-byte field. It returns the normalized name
// ready to be packed into a dirEntry, or an error.
//
// Normalization is NFC: two UTF-8 spellings of the same visible name (e.g.
// a precomposed "é" versus "e" + combining acute) are folded to one
// canonical byte sequence before the uniqueness check in Create, so they
// collide as the same file instead of silently coexisting.
func validateFilename(name string) (string, error) {
	if len(name) == 0 {
		return "", ErrBadFilename
	}
	normalized := norm.NFC.String(name)
	if len(normalized) == 0 || len(normalized) > maxFilenameLen {
		return "", ErrBadFilename
	}
	for i := 0; i < len(normalized); i++ {
		if normalized[i] == 0 {
			return "", ErrBadFilename
		}
	}
	return normalized, nil
}

// packFilename writes name (already validated/normalized) into a
// filenameFieldLen-byte field, NUL-padding the remainder.
func packFilename(name string) [filenameFieldLen]byte {
	var field [filenameFieldLen]byte
	copy(field[:], name)
	return field
}
