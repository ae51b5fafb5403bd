package pipeline

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidscale/media"
)

func newTestDriver(t *testing.T, cfg Config) *Driver {
	t.Helper()
	d, err := NewDriver(cfg)
	require.NoError(t, err)
	return d
}

func TestNewDriverValidation(t *testing.T) {
	demux := &scriptDemuxer{}
	dec := &scriptDecoder{}
	filt := &scriptFilter{}
	sink := &recordSink{}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "complete", cfg: Config{Demuxer: demux, Decoder: dec, Filter: filt, Sink: sink}, wantErr: false},
		{name: "nil_demuxer", cfg: Config{Decoder: dec, Filter: filt, Sink: sink}, wantErr: true},
		{name: "nil_decoder", cfg: Config{Demuxer: demux, Filter: filt, Sink: sink}, wantErr: true},
		{name: "nil_filter", cfg: Config{Demuxer: demux, Decoder: dec, Sink: sink}, wantErr: true},
		{name: "nil_sink", cfg: Config{Demuxer: demux, Decoder: dec, Filter: filt}, wantErr: true},
		{name: "negative_video_stream", cfg: Config{Demuxer: demux, Decoder: dec, Filter: filt, Sink: sink, VideoStream: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDriver(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunRoutesPacketsAndFrames(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{
		videoPacket(0), audioPacket(0), videoPacket(1), audioPacket(960), videoPacket(2),
	}}
	sink := &recordSink{}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  &scriptFilter{},
		Sink:    sink,
	})

	ctx := NewContext()
	require.NoError(t, d.Run(ctx))

	assert.Len(t, sink.frames, 3, "one frame per video packet")
	assert.Len(t, sink.packets, 2, "audio passes through")
	assert.True(t, sink.flushed)
	assert.Equal(t, int64(3), ctx.ProcessedFrames())
}

func TestRunFlushOrdering(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{
		videoPacket(0), videoPacket(1), videoPacket(2),
	}}
	sink := &recordSink{}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  &scriptFilter{bufferFirst: 1},
		Sink:    sink,
	})

	ctx := NewContext()
	require.NoError(t, d.Run(ctx))

	// Two frames flow during the loop, the buffered one lands during
	// finalization, strictly before the sink flush.
	require.Len(t, sink.frames, 3)
	require.NotEmpty(t, sink.events)
	assert.Equal(t, "flush", sink.events[len(sink.events)-1])
	assert.Equal(t, "frame", sink.events[len(sink.events)-2])
	assert.Equal(t, int64(3), ctx.ProcessedFrames(), "flushed frames count")
}

func TestRunDrainsDecoderTail(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{videoPacket(0), videoPacket(1)}}
	sink := &recordSink{}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{tail: 2},
		Filter:  &scriptFilter{},
		Sink:    sink,
	})

	require.NoError(t, d.Run(NewContext()))
	assert.Len(t, sink.frames, 4, "two live frames plus two from the decoder flush")
}

func TestRunBenchmarkSkipsWrites(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{
		videoPacket(0), audioPacket(0), videoPacket(1),
	}}
	sink := &recordSink{}
	d := newTestDriver(t, Config{
		Demuxer:   demux,
		Decoder:   &scriptDecoder{},
		Filter:    &scriptFilter{bufferFirst: 1},
		Sink:      sink,
		Benchmark: true,
	})

	ctx := NewContext()
	require.NoError(t, d.Run(ctx))

	assert.Empty(t, sink.frames, "benchmark writes no frames")
	assert.Empty(t, sink.packets, "benchmark remuxes nothing")
	assert.Equal(t, int64(2), ctx.ProcessedFrames(), "counters still advance")
}

func TestRunAbortBeforeStart(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{videoPacket(0)}}
	sink := &recordSink{}
	filt := &scriptFilter{}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  filt,
		Sink:    sink,
	})

	ctx := NewContext()
	ctx.Abort()

	err := d.Run(ctx)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, sink.frames)
	assert.True(t, filt.flushed, "finalization still runs on abort")
	assert.True(t, sink.flushed)
}

func TestRunAbortMidStream(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{
		videoPacket(0), videoPacket(1), videoPacket(2),
	}}
	sink := &recordSink{}
	ctx := NewContext()
	filt := &scriptFilter{onProcess: func(calls int) {
		if calls == 1 {
			ctx.Abort()
		}
	}}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  filt,
		Sink:    sink,
	})

	err := d.Run(ctx)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, int64(1), ctx.ProcessedFrames(), "abort lands on the next frame boundary")
	assert.True(t, sink.flushed, "finalization still runs")
}

func TestRunPauseHoldsFrameDelivery(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{videoPacket(0), videoPacket(1)}}
	sink := &recordSink{}
	ctx := NewContext()
	ctx.Pause()

	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  &scriptFilter{},
		Sink:    sink,
	})

	var polls int
	d.sleep = func(time.Duration) {
		polls++
		ctx.Resume()
	}

	require.NoError(t, d.Run(ctx))
	assert.GreaterOrEqual(t, polls, 1, "the driver waited at least one poll")
	assert.Len(t, sink.frames, 2, "all frames delivered after resume")
}

func TestRunFilterFatalStopsPipeline(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{
		videoPacket(0), videoPacket(1), videoPacket(2),
	}}
	sink := &recordSink{}
	filt := &scriptFilter{failAt: 2}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  filt,
		Sink:    sink,
	})

	err := d.Run(NewContext())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, sink.frames, 1)
	assert.False(t, sink.flushed, "a failed run does not write the trailer")
}

func TestRunDemuxerErrorPropagates(t *testing.T) {
	demux := &scriptDemuxer{readErr: io.ErrClosedPipe}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  &scriptFilter{},
		Sink:    &recordSink{},
	})

	assert.ErrorIs(t, d.Run(NewContext()), io.ErrClosedPipe)
}

func TestRunSinkErrorPropagates(t *testing.T) {
	demux := &scriptDemuxer{packets: []*media.Packet{videoPacket(0)}}
	sink := &recordSink{frameErr: io.ErrShortWrite}
	d := newTestDriver(t, Config{
		Demuxer: demux,
		Decoder: &scriptDecoder{},
		Filter:  &scriptFilter{},
		Sink:    sink,
	})

	assert.ErrorIs(t, d.Run(NewContext()), io.ErrShortWrite)
}

func TestRunNilContext(t *testing.T) {
	d := newTestDriver(t, Config{
		Demuxer: &scriptDemuxer{},
		Decoder: &scriptDecoder{},
		Filter:  &scriptFilter{},
		Sink:    &recordSink{},
	})
	assert.Error(t, d.Run(nil))
}
