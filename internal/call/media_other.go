//go:build !linux || !cgo

package call

import (
	"log"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// newMediaConn builds a receive-only peer connection on non-Linux
// platforms. Capture through pion/mediadevices needs platform drivers
// that are only wired for Linux (V4L2 and malgo).
func newMediaConn(_ types.CallKind, stunServers []string, logger *log.Logger) (peerConn, func(), error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, nil, err
	}

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

	addRecvOnlyTransceivers(pc, logger)
	logger.Printf("peer connection ready, receive-only on this platform")

	return pc, nil, nil
}
