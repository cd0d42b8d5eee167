package graphcbo

import (
	"encoding/binary"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

// Bucket names used in bbolt.
var (
	bucketMeta          = []byte("meta")
	bucketPatternCounts = []byte("pattern_counts") // canonical key -> encoded catalogEntry
	bucketLabelDelta    = []byte("label_delta")    // labelDeltaKey -> encoded catalogEntry

	// Meta keys
	metaMaxPatternSize = []byte("max_pattern_size")
	metaEntryCount     = []byte("entry_count")
)

var allBuckets = [][]byte{bucketMeta, bucketPatternCounts, bucketLabelDelta}

// Magic byte for entry encoding format detection.
const entryMagicCRC byte = 0x02 // MessagePack with CRC32 checksum

// crc32Table is the precomputed Castagnoli CRC32 table.
var crc32Table = crc32.MakeTable(crc32.Castagnoli)

// catalogEntry is the stored value for one pattern or delta.
type catalogEntry struct {
	Count    float64 `msgpack:"c"`
	Vertices int     `msgpack:"v"`
	Edges    int     `msgpack:"e"`
}

// encodeEntry serializes an entry: magic(1) + msgpack + crc32(4).
func encodeEntry(e catalogEntry) ([]byte, error) {
	raw, err := msgpack.Marshal(e)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 1+len(raw)+4)
	buf[0] = entryMagicCRC
	copy(buf[1:], raw)
	checksum := crc32.Checksum(buf[:1+len(raw)], crc32Table)
	binary.BigEndian.PutUint32(buf[1+len(raw):], checksum)
	return buf, nil
}

func decodeEntry(data []byte) (catalogEntry, error) {
	var e catalogEntry
	if len(data) < 6 || data[0] != entryMagicCRC {
		return e, errors.Newf("graphcbo: catalog entry has unknown format (%d bytes)", len(data))
	}
	payload := data[:len(data)-4]
	stored := binary.BigEndian.Uint32(data[len(data)-4:])
	actual := crc32.Checksum(payload, crc32Table)
	if stored != actual {
		return e, errors.Newf("graphcbo: catalog entry checksum mismatch (stored=%08x actual=%08x)", stored, actual)
	}
	if err := msgpack.Unmarshal(payload[1:], &e); err != nil {
		return e, err
	}
	return e, nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// ---------------------------------------------------------------------------
// BoltCatalog: read-only Catalog backed by a bbolt file.
// ---------------------------------------------------------------------------

// BoltCatalog serves precomputed counts from a bbolt file written by
// ImportCatalog. bbolt read transactions run fully in parallel, so lookups
// need no extra locking.
type BoltCatalog struct {
	db      *bolt.DB
	path    string
	maxSize int
	entries uint64
	log     *slog.Logger
}

// OpenBoltCatalog opens the catalog file at path read-only.
func OpenBoltCatalog(path string, logger *slog.Logger) (*BoltCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bolt.Open(path, 0o444, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "graphcbo: open catalog %s", path)
	}
	c := &BoltCatalog{db: db, path: path, log: logger}
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return errors.Newf("graphcbo: %s is not a catalog file (missing %q bucket)", path, bucketMeta)
		}
		if v := meta.Get(metaMaxPatternSize); len(v) == 8 {
			c.maxSize = int(decodeUint64(v))
		}
		if v := meta.Get(metaEntryCount); len(v) == 8 {
			c.entries = decodeUint64(v)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("catalog opened", "path", path, "max_pattern_size", c.maxSize, "entries", c.entries)
	return c, nil
}

// Close releases the file.
func (c *BoltCatalog) Close() error { return c.db.Close() }

// Entries returns the number of stored pattern counts.
func (c *BoltCatalog) Entries() uint64 { return c.entries }

func (c *BoltCatalog) MaxPatternSize() int { return c.maxSize }

// RowCount implements Catalog. Missing patterns and read failures count as
// zero; read failures are logged.
func (c *BoltCatalog) RowCount(p CanonicalPattern) float64 {
	if v, ok := c.lookup(bucketPatternCounts, p.Key()); ok {
		return v
	}
	if !p.Pattern().needsExpansion() {
		return 0
	}
	var total float64
	for _, k := range instanceKeys(p) {
		v, _ := c.lookup(bucketPatternCounts, k)
		total += v
	}
	return total
}

// LabelConstraintDelta implements Catalog.
func (c *BoltCatalog) LabelConstraintDelta(edge PatternEdge, target PatternVertex) float64 {
	v, _ := c.lookup(bucketLabelDelta, labelDeltaKey(edge, target))
	return v
}

func (c *BoltCatalog) lookup(bucket []byte, key string) (float64, bool) {
	var (
		count float64
		found bool
	)
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		e, err := decodeEntry(data)
		if err != nil {
			return err
		}
		count, found = e.Count, true
		return nil
	})
	if err != nil {
		c.log.Error("catalog lookup failed", "path", c.path, "bucket", string(bucket), "key", key, "error", err)
		return 0, false
	}
	return count, found
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// CatalogEntry is one precomputed pattern count.
type CatalogEntry struct {
	Pattern *Pattern
	Count   float64
}

// LabelDeltaEntry is one precomputed label-constraint correction.
type LabelDeltaEntry struct {
	Edge   PatternEdge
	Target PatternVertex
	Delta  float64
}

// ImportCatalog writes precomputed counts into a new catalog file at path,
// replacing any existing file. It does not sample or derive counts; callers
// supply them.
func ImportCatalog(path string, maxPatternSize int, entries []CatalogEntry, deltas []LabelDeltaEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "graphcbo: create catalog directory")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "graphcbo: replace catalog file")
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return errors.Wrapf(err, "graphcbo: create catalog %s", path)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		counts := tx.Bucket(bucketPatternCounts)
		keys := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			if e.Count < 0 {
				return errors.Newf("graphcbo: negative count %v for %s", e.Count, e.Pattern)
			}
			val, err := encodeEntry(catalogEntry{Count: e.Count, Vertices: e.Pattern.VertexCount(), Edges: e.Pattern.EdgeCount()})
			if err != nil {
				return err
			}
			key := e.Pattern.Reordering().Key()
			if err := counts.Put([]byte(key), val); err != nil {
				return err
			}
			keys[key] = struct{}{}
		}
		deltaBucket := tx.Bucket(bucketLabelDelta)
		for _, d := range deltas {
			if d.Delta < 0 {
				return errors.Newf("graphcbo: negative label delta %v for %s", d.Delta, d.Edge)
			}
			val, err := encodeEntry(catalogEntry{Count: d.Delta, Vertices: 2, Edges: 1})
			if err != nil {
				return err
			}
			if err := deltaBucket.Put([]byte(labelDeltaKey(d.Edge, d.Target)), val); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(metaMaxPatternSize, encodeUint64(uint64(maxPatternSize))); err != nil {
			return err
		}
		return meta.Put(metaEntryCount, encodeUint64(uint64(len(keys))))
	})
}
