//go:build linux && cgo

package call

import (
	"log"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/pion/interceptor"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
)

// newMediaConn builds a peer connection with VP8+Opus codecs and
// captures the local camera and microphone through pion/mediadevices
// (V4L2 and malgo on Linux). Capture degrades gracefully: video+audio,
// then single-track, then receive-only.
func newMediaConn(kind types.CallKind, stunServers []string, logger *log.Logger) (peerConn, func(), error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, nil, err
	}
	vpxParams.BitRate = 1_500_000

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, nil, err
	}

	codecSelector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	mediaEngine := &webrtc.MediaEngine{}
	codecSelector.Populate(mediaEngine)

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, nil, err
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
	)

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: iceServers(stunServers),
	})
	if err != nil {
		return nil, nil, err
	}

	// GetUserMedia fails as a unit if either requested track cannot be
	// opened, so a busy microphone must not block the camera and vice
	// versa. Audio calls skip the video attempts entirely.
	wantVideo := kind == types.CallVideo
	type attempt struct {
		video bool
		audio bool
		label string
	}
	attempts := []attempt{
		{wantVideo, true, "video+audio"},
		{wantVideo, false, "video-only"},
		{false, true, "audio-only"},
	}

	for _, a := range attempts {
		if !a.video && !a.audio {
			continue
		}

		constraints := mediadevices.MediaStreamConstraints{Codec: codecSelector}
		if a.video {
			constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
				// Raw formats only. Some cameras expose an MJPEG node
				// that produces malformed frames and poisons the VP8
				// encoder.
				c.FrameFormat = prop.FrameFormatOneOf{
					frame.FormatYUYV,
					frame.FormatI420,
					frame.FormatI444,
					frame.FormatRGBA,
				}
				c.Width = prop.IntRanged{Max: 640}
				c.Height = prop.IntRanged{Max: 480}
			}
		}
		if a.audio {
			constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
		}

		stream, err := mediadevices.GetUserMedia(constraints)
		if err != nil {
			logger.Printf("media capture (%s) failed: %s", a.label, err)
			continue
		}

		tracks := stream.GetTracks()
		for _, track := range tracks {
			track.OnEnded(func(err error) {
				if err != nil {
					logger.Printf("local track ended: %s", err)
				}
			})
			if _, err := pc.AddTrack(track); err != nil {
				logger.Printf("failed to add local track: %s", err)
			}
		}

		logger.Printf("local media captured (%s), %d tracks", a.label, len(tracks))
		closeFn := func() {
			for _, t := range tracks {
				t.Close()
			}
		}

		return pc, closeFn, nil
	}

	pc.Close()

	return nil, nil, ErrMediaUnavailable
}
