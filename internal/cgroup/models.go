package cgroup

// Entry is a single key=value token of a cgroup accounting line. Values are
// kept verbatim.
type Entry struct {
	Key   string
	Value string
}

// IOStatRecord is one line of io.stat.
type IOStatRecord struct {
	Device  string
	Entries []Entry
}

// IOPressureRecord is one line of io.pressure.
type IOPressureRecord struct {
	Type    string
	Entries []Entry
}
