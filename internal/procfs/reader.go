// Package procfs is a tolerant reader for the small pseudo-files under /proc
// and /sys. Nothing here returns an error: a file that is missing, unreadable
// or malformed is reported as absent and the caller picks a neutral value.
package procfs

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Reader resolves pseudo-file paths against configurable mount points.
type Reader struct {
	procRoot string
	sysRoot  string
}

// Option configures the Reader.
type Option func(*Reader)

// WithProcRoot sets a custom /proc path (useful for testing).
func WithProcRoot(path string) Option {
	return func(r *Reader) {
		if path != "" {
			r.procRoot = path
		}
	}
}

// WithSysRoot sets a custom /sys path (useful for testing).
func WithSysRoot(path string) Option {
	return func(r *Reader) {
		if path != "" {
			r.sysRoot = path
		}
	}
}

func New(opts ...Option) *Reader {
	r := &Reader{procRoot: "/proc", sysRoot: "/sys"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Proc joins elements below the procfs root.
func (r *Reader) Proc(elem ...string) string {
	return filepath.Join(append([]string{r.procRoot}, elem...)...)
}

// Sys joins elements below the sysfs root.
func (r *Reader) Sys(elem ...string) string {
	return filepath.Join(append([]string{r.sysRoot}, elem...)...)
}

// Read returns the raw content of path, or false on any failure.
func (r *Reader) Read(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// ReadValue returns the trimmed content of a single-value file; empty counts as absent.
func (r *Reader) ReadValue(path string) (string, bool) {
	s, ok := r.Read(path)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ReadInt parses a single decimal integer file.
func (r *Reader) ReadInt(path string) (int64, bool) {
	s, ok := r.ReadValue(path)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Exists reports whether path resolves to anything.
func (r *Reader) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListDirs lists directory entries (following symlinks) whose name has prefix,
// in natural order so that hwmon2 sorts before hwmon10.
func (r *Reader) ListDirs(dir, prefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		st, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !st.IsDir() {
			continue
		}
		out = append(out, name)
	}
	sortNatural(out)
	return out
}

// ListFiles lists regular files in dir in natural order.
func (r *Reader) ListFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		st, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		out = append(out, e.Name())
	}
	sortNatural(out)
	return out
}

func sortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, ni := splitNumber(names[i])
		pj, nj := splitNumber(names[j])
		if pi != pj {
			return pi < pj
		}
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})
}

// splitNumber separates the first run of digits: "temp12_input" -> ("temp", 12).
func splitNumber(s string) (string, int) {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return s, -1
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return s, -1
	}
	return s[:start], n
}
