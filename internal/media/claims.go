package media

import "github.com/golang-jwt/jwt/v5"

// Grant is the capability set embedded in a media access token under the "video" claim.
// The can* fields are never omitted: the media server treats a missing permission as granted.
type Grant struct {
	Room           string `json:"room,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	CanPublish     bool   `json:"canPublish"`
	CanPublishData bool   `json:"canPublishData"`
	CanSubscribe   bool   `json:"canSubscribe"`
}

// ParticipantGrant scopes a token to joining exactly one room with publish, data and
// subscribe rights. No room administration is granted.
func ParticipantGrant(room string) Grant {
	return Grant{
		Room:           room,
		RoomJoin:       true,
		CanPublish:     true,
		CanPublishData: true,
		CanSubscribe:   true,
	}
}

// Claims is the access-token payload understood by the media server:
// iss is the API key, sub and jti carry the participant identity.
type Claims struct {
	jwt.RegisteredClaims

	Name  string `json:"name,omitempty"`
	Video *Grant `json:"video,omitempty"`
}
