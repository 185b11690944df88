package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// FileIDStep is the distance between two consecutive archive files.
	// Each file covers one checkpoint of 64 ledgers.
	FileIDStep = 64

	fileIDWidth = 8
	maxFileID   = 1<<(4*fileIDWidth) - 1
)

// FileKind selects one half of an archive file pair.
type FileKind string

const (
	FileKindLedger       FileKind = "ledger"
	FileKindTransactions FileKind = "transactions"
)

// FileID is the 8 digit lowercase hexadecimal name of an archive file pair.
type FileID string

// ParseFileID validates s and returns it as a FileID.
func ParseFileID(s string) (FileID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != fileIDWidth {
		return "", fmt.Errorf("%w: %q must have %d hex digits", ErrInvalidFileID, s, fileIDWidth)
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidFileID, s, err)
	}

	return FileID(s), nil
}

// FileIDFromUint renders n as a FileID.
func FileIDFromUint(n uint64) (FileID, error) {
	if n > maxFileID {
		return "", fmt.Errorf("%w: %x", ErrFileIDOverflow, n)
	}

	return FileID(fmt.Sprintf("%0*x", fileIDWidth, n)), nil
}

// Uint returns the numeric value of the id.
func (id FileID) Uint() (uint64, error) {
	n, err := strconv.ParseUint(string(id), 16, 64)
	if err != nil || len(id) != fileIDWidth {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFileID, string(id))
	}

	return n, nil
}

// Next returns the id of the following archive file.
func (id FileID) Next() (FileID, error) {
	n, err := id.Uint()
	if err != nil {
		return "", err
	}

	return FileIDFromUint(n + FileIDStep)
}

// IsCheckpointBoundary reports whether the id names the last ledger of a
// checkpoint, which is how archive files are named.
func (id FileID) IsCheckpointBoundary() bool {
	n, err := id.Uint()
	if err != nil {
		return false
	}

	return (n+1)%FileIDStep == 0
}

// ShardPath returns the fan-out directory holding the file, e.g.
// "transactions/00/4c/93" for 004c93bf.
func (id FileID) ShardPath(kind FileKind) string {
	s := string(id)
	groups := make([]string, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		end := min(i+2, len(s))
		groups = append(groups, s[i:end])
	}

	joined := strings.Join(groups, "/")
	if len(joined) > 9 {
		joined = joined[:9]
	}

	return string(kind) + "/" + strings.TrimSuffix(joined, "/")
}

// FileName returns the archive object name without its directory.
func (id FileID) FileName(kind FileKind) string {
	return string(kind) + "-" + string(id) + ".xdr.gz"
}

// ObjectKey returns the full object key under an optional root prefix.
func (id FileID) ObjectKey(prefix string, kind FileKind) string {
	return withPrefix(prefix, id.ShardPath(kind)+"/"+id.FileName(kind))
}

// RootStateKey returns the key of the archive's root history archive
// state file, which every published archive carries.
func RootStateKey(prefix string) string {
	return withPrefix(prefix, ".well-known/stellar-history.json")
}

func withPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}

	return prefix + "/" + key
}

func (id FileID) String() string {
	return string(id)
}
