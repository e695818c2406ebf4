package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of the database and the keyword index.
type Usage struct {
	DatabaseBytes int64 `json:"database_bytes"`
	IndexBytes    int64 `json:"index_bytes"`
}

// Total returns the combined size.
func (u Usage) Total() int64 {
	return u.DatabaseBytes + u.IndexBytes
}

// DiskUsage measures the database file with its WAL and shared-memory
// companions, and the index directory. Missing paths count as zero.
func DiskUsage(dbPath, indexPath string) (Usage, error) {
	var u Usage
	var err error
	if dbPath != "" {
		if u.DatabaseBytes, err = pathSize(dbPath, dbPath+"-wal", dbPath+"-shm"); err != nil {
			return Usage{}, err
		}
	}
	if indexPath != "" {
		if u.IndexBytes, err = pathSize(indexPath); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}

// pathSize sums file sizes under paths; directories are walked.
func pathSize(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
