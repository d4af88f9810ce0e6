package types

// CacheVersion is bumped whenever the persisted layout changes. A cache file
// carrying any other version is discarded and rebuilt from the source logs.
const CacheVersion = 1

// FileUsageRecord is the cached contribution of one scanned log file.
// The record is replaced wholesale when the file's (mtime, size) changes;
// a file is never partially re-parsed.
type FileUsageRecord struct {
	MtimeUnixMs int64    `json:"mtimeUnixMs"`
	Size        int64    `json:"size"`
	ParsedBytes int64    `json:"parsedBytes,omitempty"`
	Days        DayUsage `json:"days"`
}

// Matches reports whether the on-disk identity still matches the record,
// meaning the file's cached contribution is current.
func (r *FileUsageRecord) Matches(mtimeUnixMs, size int64) bool {
	return r != nil && r.MtimeUnixMs == mtimeUnixMs && r.Size == size
}

// Cache is the persisted scan state for one (provider, allTime) pair.
// Days is denormalized: it always equals the sum of every file record's
// per-day contributions, maintained by symmetric apply/retract.
type Cache struct {
	Version        int                         `json:"version"`
	LastScanUnixMs int64                       `json:"lastScanUnixMs"`
	Files          map[string]*FileUsageRecord `json:"files"`
	Days           DayUsage                    `json:"days"`
	Roots          map[string]int64            `json:"roots,omitempty"`
}

// NewCache returns an empty cache at the current version.
func NewCache() *Cache {
	return &Cache{
		Version: CacheVersion,
		Files:   make(map[string]*FileUsageRecord),
		Days:    make(DayUsage),
	}
}
