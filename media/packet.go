package media

// Packet is one compressed unit read from or written to a container:
// for video codecs one encoded picture, for audio codecs one block of
// samples. Like frames, packets transfer ownership when handed off.
type Packet struct {
	Data []byte

	// PTS and DTS are counted in TimeBase ticks, or NoPTS when unknown.
	PTS int64
	DTS int64

	// Duration is the packet's playback length in TimeBase ticks, or 0
	// when the container does not record it.
	Duration int64

	// TimeBase is the unit PTS, DTS and Duration are counted in.
	TimeBase Rational

	// StreamIndex identifies which stream of the container the packet
	// belongs to.
	StreamIndex int

	// Keyframe marks packets that can be decoded without reference to
	// earlier ones.
	Keyframe bool
}

// Clone returns a deep copy of the packet, payload included.
func (p *Packet) Clone() *Packet {
	if p == nil {
		return nil
	}
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}

// RescaleTime converts the packet's timestamps into a new time base,
// rounding half away from zero, and records the new base. NoPTS values
// survive unchanged.
func (p *Packet) RescaleTime(to Rational) {
	p.PTS = Rescale(p.PTS, p.TimeBase, to)
	p.DTS = Rescale(p.DTS, p.TimeBase, to)
	p.Duration = Rescale(p.Duration, p.TimeBase, to)
	p.TimeBase = to
}
