package fs

import (
	"os"
	"strings"
)

func safeIntToUint64(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	return uint32(n)
}

// modeFromPermission maps a permission string onto file mode bits: "r"
// grants read to everyone, "w" grants write to the owner.
func modeFromPermission(perm string) os.FileMode {
	var mode os.FileMode
	if strings.Contains(perm, "r") {
		mode |= 0444
	}
	if strings.Contains(perm, "w") {
		mode |= 0200
	}
	return mode
}

// permissionFromMode is the inverse of modeFromPermission, looking only at
// the owner bits.
func permissionFromMode(mode os.FileMode) string {
	var b strings.Builder
	if mode&0400 != 0 {
		b.WriteByte('r')
	}
	if mode&0200 != 0 {
		b.WriteByte('w')
	}
	return b.String()
}
