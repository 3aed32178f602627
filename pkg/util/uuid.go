package util

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"
)

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// TempPath returns a unique sibling of path for staging a write before rename
func TempPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
}

// RunID tags the log lines of one command invocation
func RunID() string {
	return uuid.NewString()
}
