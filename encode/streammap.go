package encode

// NotMapped marks input streams without an output stream. Packets for
// them are dropped during remux.
const NotMapped = -1

// StreamMap relates demuxer stream indexes to muxer stream indexes.
// The zero value is empty; every lookup answers NotMapped until Set
// records a mapping.
type StreamMap struct {
	targets map[int]int
}

// NewStreamMap returns an empty map.
func NewStreamMap() *StreamMap {
	return &StreamMap{targets: make(map[int]int)}
}

// Set records that input maps to output. NotMapped marks the input as
// deliberately dropped.
func (m *StreamMap) Set(input, output int) {
	m.targets[input] = output
}

// Lookup returns the output index for input, or NotMapped when the
// input is unknown or dropped.
func (m *StreamMap) Lookup(input int) int {
	out, ok := m.targets[input]
	if !ok {
		return NotMapped
	}
	return out
}

// Len counts inputs with a live output mapping.
func (m *StreamMap) Len() int {
	n := 0
	for _, out := range m.targets {
		if out != NotMapped {
			n++
		}
	}
	return n
}

// Entries returns a copy of every recorded mapping, dropped inputs
// included.
func (m *StreamMap) Entries() map[int]int {
	out := make(map[int]int, len(m.targets))
	for k, v := range m.targets {
		out[k] = v
	}
	return out
}
