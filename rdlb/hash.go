package rdlb

import "encoding/hex"

// HashToHex converts a class hash to a lowercase hex string.
func HashToHex(h [16]byte) string { return hex.EncodeToString(h[:]) }
