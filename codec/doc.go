// Package codec defines the decoder and encoder contracts of the video
// pipeline and a registry that maps codec names to implementations.
//
// # Send/Receive Model
//
// Both directions follow the same push/pull shape: submit input with
// SendPacket or SendFrame, then drain output with ReceiveFrame or
// ReceivePacket until ErrNeedMoreInput. Nothing in the contract is
// one-to-one; a codec is free to buffer arbitrarily, which is exactly
// how lookahead encoders behave. A nil submission signals end of
// stream, after which draining ends in io.EOF.
//
// # Registry
//
// Implementations register themselves from init, so enabling a codec is
// a blank import:
//
//	import _ "github.com/opd-ai/vidscale/codec/rawvideo"
//
// Encoders also declare the pixel formats they accept natively, which
// drives format negotiation in the encode stage.
package codec
