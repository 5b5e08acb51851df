package cgroup

import (
	"errors"
	"fmt"
	"strings"
)

const (
	IOStatFile     = "io.stat"
	IOPressureFile = "io.pressure"

	unifiedMarker = "0::/"
)

var (
	ErrMalformedLine      = errors.New("malformed cgroup line")
	ErrUnsupportedVersion = errors.New("unsupported cgroup version")
)

// ParseIOStat parses the content of an io.stat file. A single malformed line
// fails the whole file.
func ParseIOStat(text string) ([]IOStatRecord, error) {
	lines := splitLines(text)
	records := make([]IOStatRecord, 0, len(lines))

	for i, line := range lines {
		device, entries, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", IOStatFile, i+1, err)
		}
		records = append(records, IOStatRecord{Device: device, Entries: entries})
	}

	return records, nil
}

// ParseIOPressure parses the content of an io.pressure file.
func ParseIOPressure(text string) ([]IOPressureRecord, error) {
	lines := splitLines(text)
	records := make([]IOPressureRecord, 0, len(lines))

	for i, line := range lines {
		pressureType, entries, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", IOPressureFile, i+1, err)
		}
		records = append(records, IOPressureRecord{Type: pressureType, Entries: entries})
	}

	return records, nil
}

// ParseUnifiedPath extracts the cgroup v2 path from the content of
// /proc/<pid>/cgroup. The returned path is relative to the cgroup root.
func ParseUnifiedPath(procCgroup string) (string, error) {
	if !strings.HasPrefix(procCgroup, unifiedMarker) {
		return "", fmt.Errorf("%w: missing %q marker, is the host on cgroup v2?", ErrUnsupportedVersion, unifiedMarker)
	}

	return strings.TrimSpace(procCgroup[len(unifiedMarker):]), nil
}

func parseLine(line string) (string, []Entry, error) {
	fields := strings.FieldsFunc(line, isASCIISpace)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: missing first token", ErrMalformedLine)
	}

	entries := make([]Entry, 0, len(fields)-1)
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return "", nil, fmt.Errorf("%w: token %q has no '='", ErrMalformedLine, field)
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}

	return fields[0], entries, nil
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// splitLines mirrors line iteration semantics: a trailing newline does not
// produce an extra empty line, but blank lines in between are kept.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
