package codec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/vidscale/media"
	"github.com/sirupsen/logrus"
)

// DecoderFactory opens a decoder for a stream described by info.
type DecoderFactory func(info media.StreamInfo) (Decoder, error)

// EncoderFactory opens an encoder configured by cfg.
type EncoderFactory func(cfg EncoderConfig) (Encoder, error)

type registryEntry struct {
	decoder   DecoderFactory
	encoder   EncoderFactory
	preferred []media.PixelFormat
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*registryEntry)
)

func entryFor(name string) *registryEntry {
	e, ok := registry[name]
	if !ok {
		e = &registryEntry{}
		registry[name] = e
	}
	return e
}

// RegisterDecoder makes a decoder factory available under name. Codec
// packages call this from init, so importing a codec package is all it
// takes to enable it.
func RegisterDecoder(name string, factory DecoderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	entryFor(name).decoder = factory
	logrus.WithFields(logrus.Fields{
		"function": "RegisterDecoder",
		"codec":    name,
	}).Debug("Registered decoder")
}

// RegisterEncoder makes an encoder factory available under name.
// preferred lists the pixel formats the encoder accepts natively, best
// first; format negotiation converts frames to one of these.
func RegisterEncoder(name string, factory EncoderFactory, preferred ...media.PixelFormat) {
	registryMu.Lock()
	defer registryMu.Unlock()

	e := entryFor(name)
	e.encoder = factory
	e.preferred = preferred
	logrus.WithFields(logrus.Fields{
		"function": "RegisterEncoder",
		"codec":    name,
	}).Debug("Registered encoder")
}

// NewDecoder opens a decoder for the stream's codec.
func NewDecoder(info media.StreamInfo) (Decoder, error) {
	registryMu.RLock()
	e, ok := registry[info.CodecID]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, info.CodecID)
	}
	if e.decoder == nil {
		return nil, fmt.Errorf("%w: %q", ErrDecodeNotSupported, info.CodecID)
	}
	return e.decoder(info)
}

// NewEncoder opens an encoder by registry name.
func NewEncoder(name string, cfg EncoderConfig) (Encoder, error) {
	registryMu.RLock()
	e, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	if e.encoder == nil {
		return nil, fmt.Errorf("%w: %q", ErrEncodeNotSupported, name)
	}
	return e.encoder(cfg)
}

// CanEncode reports whether an encoder factory is registered under name.
func CanEncode(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[name]
	return ok && e.encoder != nil
}

// CanDecode reports whether a decoder factory is registered under name.
func CanDecode(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[name]
	return ok && e.decoder != nil
}

// PreferredFormats returns the pixel formats the named encoder accepts,
// best first. An empty slice means the encoder takes whatever it is
// given.
func PreferredFormats(name string) []media.PixelFormat {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[name]
	if !ok {
		return nil
	}
	return append([]media.PixelFormat(nil), e.preferred...)
}

// Codecs returns the sorted names of every registered codec.
func Codecs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
