// Package persistence reads and writes adjustment settings as a
// human-readable text block.
//
// The parser only looks at lines starting with the five parameter prefixes
// (Brightness:, Contrast:, Gamma:, Sharpness:, Invert:); everything else is
// decoration. Values are written with limited precision: brightness and
// sharpness to 1 decimal, contrast and gamma to 2 decimals. A round trip
// through Export and Import therefore only reproduces settings up to that
// rounding.
package persistence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"vmmfrc/internal/logging"
	"vmmfrc/pkg/adjustment"
)

const (
	title       = "VMM-FRC Image Adjustment Settings"
	timeLayout  = "2006-01-02 15:04:05"
	majorRule   = 60
	sectionRule = 40
)

// parameterKeys are the line prefixes Read recognizes
var parameterKeys = []string{"Brightness", "Contrast", "Gamma", "Sharpness", "Invert"}

// Entry is one line of optional volume metadata written with the settings
type Entry struct {
	Key   string
	Value any
}

// shadowsParameter reports whether the metadata line would be read back as
// one of the parameter lines.
func (e Entry) shadowsParameter() bool {
	key, _, _ := strings.Cut(strings.TrimSpace(e.Key), ":")
	return slices.Contains(parameterKeys, key)
}

// PersistenceError reports a failed export or import
type PersistenceError struct {
	Op   string // "export" or "import"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s settings: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s settings %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Export writes settings and optional metadata to path
func Export(s adjustment.Settings, path string, metadata ...Entry) (err error) {
	defer func() {
		if err != nil {
			err = &PersistenceError{Op: "export", Path: path, Err: err}
			logging.Logger().Error("exporting adjustment settings failed", "path", path, "error", err)
		}
	}()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, s, time.Now(), metadata...); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return err
	}

	logging.Logger().Info("exported adjustment settings", "path", path)
	return nil
}

// Write renders the settings block to w. Metadata keys that collide with a
// parameter name are rejected before anything is written.
func Write(w io.Writer, s adjustment.Settings, exported time.Time, metadata ...Entry) error {
	for _, e := range metadata {
		if e.shadowsParameter() {
			return fmt.Errorf("metadata key %q collides with an adjustment parameter", e.Key)
		}
	}

	bw := bufio.NewWriter(w)
	major := strings.Repeat("=", majorRule)
	section := func(name string) {
		fmt.Fprintln(bw, strings.Repeat("-", sectionRule))
		fmt.Fprintln(bw, name)
		fmt.Fprintln(bw, strings.Repeat("-", sectionRule))
	}

	fmt.Fprintln(bw, major)
	fmt.Fprintln(bw, title)
	fmt.Fprintln(bw, major)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Exported: %s\n\n", exported.Format(timeLayout))

	if len(metadata) > 0 {
		section("Volume Information")
		for _, e := range metadata {
			fmt.Fprintf(bw, "  %s: %v\n", e.Key, e.Value)
		}
		fmt.Fprintln(bw)
	}

	section("Adjustment Parameters")
	fmt.Fprintf(bw, "  Brightness:  %+.1f\n", s.Brightness)
	fmt.Fprintf(bw, "  Contrast:    %.2f\n", s.Contrast)
	fmt.Fprintf(bw, "  Gamma:       %.2f\n", s.Gamma)
	fmt.Fprintf(bw, "  Sharpness:   %.1f\n", s.Sharpness)
	fmt.Fprintf(bw, "  Invert:      %s\n", yesNo(s.Invert))
	fmt.Fprintln(bw)

	section("Parameter Descriptions")
	fmt.Fprintln(bw, "  Brightness:  Shifts all pixel values (-100 to +100)")
	fmt.Fprintln(bw, "  Contrast:    Multiplier around midpoint (0.1 to 3.0, 1.0 = no change)")
	fmt.Fprintln(bw, "  Gamma:       Gamma correction (0.1 to 3.0, 1.0 = no change)")
	fmt.Fprintln(bw, "               Lower values brighten, higher values darken")
	fmt.Fprintln(bw, "  Sharpness:   Unsharp mask amount (0 to 100)")
	fmt.Fprintln(bw, "  Invert:      Inverts all pixel intensities")

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, major)

	return bw.Flush()
}

// Import reads settings from a file written by Export
func Import(path string) (s adjustment.Settings, err error) {
	defer func() {
		if err != nil {
			err = &PersistenceError{Op: "import", Path: path, Err: err}
			logging.Logger().Error("loading adjustment settings failed", "path", path, "error", err)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return adjustment.Settings{}, err
	}
	defer file.Close()

	return Read(file)
}

// Read parses a settings block. The first line carrying each parameter
// prefix wins, so the description section, which repeats the prefixes,
// is ignored. Parameters that never appear keep their defaults. An
// unparsable value fails the whole read.
func Read(r io.Reader) (adjustment.Settings, error) {
	s := adjustment.DefaultSettings()
	seen := make(map[string]bool)

	numeric := map[string]*float64{
		"Brightness": &s.Brightness,
		"Contrast":   &s.Contrast,
		"Gamma":      &s.Gamma,
		"Sharpness":  &s.Sharpness,
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || seen[key] {
			continue
		}
		value = strings.TrimSpace(value)

		if key == "Invert" {
			switch strings.ToLower(value) {
			case "yes", "true", "1":
				s.Invert = true
			default:
				s.Invert = false
			}
			seen[key] = true
			continue
		}

		target, ok := numeric[key]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return adjustment.Settings{}, fmt.Errorf("line %d: invalid %s value %q", lineNo, strings.ToLower(key), value)
		}
		*target = v
		seen[key] = true
	}
	if err := scanner.Err(); err != nil {
		return adjustment.Settings{}, err
	}

	return s, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
