package calls

import (
	"time"

	"github.com/livekit/protocol/auth"
)

type MediaConfig struct {
	Host      string
	APIKey    string
	APISecret string
}

// MediaService issues LiveKit room tokens for call audio/video.
type MediaService struct {
	config MediaConfig
}

func NewMediaService(config MediaConfig) *MediaService {
	return &MediaService{config: config}
}

func (s *MediaService) GenerateToken(roomName, userID, username string) (string, error) {
	at := auth.NewAccessToken(s.config.APIKey, s.config.APISecret)

	at.SetVideoGrant(&auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}).
		SetIdentity(userID).
		SetName(username).
		SetValidFor(24 * time.Hour)

	return at.ToJWT()
}

func (s *MediaService) GetWebSocketURL() string {
	return s.config.Host
}
