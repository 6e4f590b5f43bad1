package call

import (
	"log"

	"github.com/pion/webrtc/v4"
)

// addRecvOnlyTransceivers adds recvonly transceivers for video and audio
// so CreateOffer/CreateAnswer still produce valid m-lines with ICE
// credentials when no local capture is available.
func addRecvOnlyTransceivers(pc *webrtc.PeerConnection, logger *log.Logger) {
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		logger.Printf("failed to add video transceiver: %s", err)
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		logger.Printf("failed to add audio transceiver: %s", err)
	}
}

func iceServers(stunServers []string) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(stunServers))
	for _, s := range stunServers {
		servers = append(servers, webrtc.ICEServer{URLs: []string{s}})
	}

	return servers
}
