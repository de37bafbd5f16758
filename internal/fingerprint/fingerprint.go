// Package fingerprint detects changes to a set of paths by comparing
// modification-time snapshots taken at poll time.
package fingerprint

import (
	"sort"
	"time"

	"github.com/spf13/afero"
)

// Sample is the modification time observed for one existing path.
type Sample struct {
	Path    string
	ModTime time.Time
}

// Fingerprint is an ordered snapshot of samples. The zero value is the
// snapshot of an empty (or entirely missing) watch set.
type Fingerprint struct {
	samples []Sample
	force   bool
}

// Force returns the sentinel fingerprint that never equals anything,
// including another Force.
func Force() Fingerprint {
	return Fingerprint{force: true}
}

// IsForce reports whether f is the force sentinel.
func (f Fingerprint) IsForce() bool {
	return f.force
}

// Len returns the number of paths that existed when f was taken.
func (f Fingerprint) Len() int {
	return len(f.samples)
}

// Samples returns a copy of the samples, sorted by path.
func (f Fingerprint) Samples() []Sample {
	out := make([]Sample, len(f.samples))
	copy(out, f.samples)
	return out
}

// Equal reports whether f and other hold the same paths with the same
// modification times. The force sentinel is never equal.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.force || other.force {
		return false
	}
	if len(f.samples) != len(other.samples) {
		return false
	}
	for i := range f.samples {
		if f.samples[i].Path != other.samples[i].Path {
			return false
		}
		if !f.samples[i].ModTime.Equal(other.samples[i].ModTime) {
			return false
		}
	}
	return true
}

// Changed reports whether cur differs from old.
func Changed(old, cur Fingerprint) bool {
	return !old.Equal(cur)
}

// Detector takes snapshots against a filesystem.
type Detector struct {
	fs afero.Fs
}

// NewDetector returns a Detector reading from fs. A nil fs means the
// operating system filesystem.
func NewDetector(fs afero.Fs) *Detector {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Detector{fs: fs}
}

// Fs returns the filesystem the detector reads.
func (d *Detector) Fs() afero.Fs {
	return d.fs
}

// Snapshot stats every path and records the ones that exist.
// Missing paths are omitted rather than recorded with a placeholder.
func (d *Detector) Snapshot(paths []string) Fingerprint {
	samples := make([]Sample, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		info, err := d.fs.Stat(p)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{Path: p, ModTime: info.ModTime()})
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Path < samples[j].Path
	})
	return Fingerprint{samples: samples}
}

// Exists reports whether path currently exists.
func (d *Detector) Exists(path string) bool {
	_, err := d.fs.Stat(path)
	return err == nil
}
