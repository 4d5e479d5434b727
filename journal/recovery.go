package journal

import (
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/fname"
)

// FindRotated scans dir for rotated journal files (fname.JournalGlob) and
// returns their paths sorted oldest-first, for a startup recovery scan
// that needs to find the most recent file and detect a truncated trailing
// record.
func FindRotated(dir string) ([]string, error) {
	var paths []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			ok, matchErr := filepath.Match(fname.JournalGlob, filepath.Base(path))
			if matchErr != nil {
				return matchErr
			}
			if ok && filepath.Base(path) != fname.JournalActive {
				paths = append(paths, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, cmn.NewCorruptJournalCause(err, "scan journal directory %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Recover opens every rotated file oldest-first plus the active file, and
// replays all records, stopping (without failing the whole scan) on a
// CorruptJournal from the last file only - a mid-sequence corrupt file is
// still a hard failure, since it means an earlier "closed" file was never
// actually complete.
func Recover(dir string) ([]*Record, error) {
	paths, err := FindRotated(dir)
	if err != nil {
		return nil, err
	}
	activePath := filepath.Join(dir, fname.JournalActive)
	paths = append(paths, activePath)

	var all []*Record
	for i, p := range paths {
		r, err := OpenReader(p)
		if err != nil {
			if i == len(paths)-1 {
				// active file may not exist yet on a fresh journal
				continue
			}
			return all, err
		}
		recs, err := r.ReadAll()
		_ = r.Close()
		all = append(all, recs...)
		if err != nil {
			if i == len(paths)-1 && cmn.IsCorruptJournal(err) {
				break
			}
			return all, err
		}
	}
	return all, nil
}
