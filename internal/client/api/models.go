package api

import "time"

type RoomSettings struct {
	AllowedGenders  []string `json:"allowedGenders"`
	RequireHost     bool     `json:"requireHost"`
	MaxParticipants int      `json:"maxParticipants,omitempty"`
}

// Room is the sanitized room record returned by the server.
type Room struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Template           string       `json:"template"`
	Creator            string       `json:"creator"`
	CreatedAt          time.Time    `json:"createdAt"`
	Locked             bool         `json:"locked"`
	HasPassword        bool         `json:"hasPassword"`
	HasSessionPassword bool         `json:"hasSessionPassword"`
	Settings           RoomSettings `json:"settings"`
	E2EEEnabled        bool         `json:"e2eeEnabled"`
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Template    string `json:"template"`
	Locked      bool   `json:"locked"`
	Password    string `json:"password,omitempty"`
	Creator     string `json:"creator,omitempty"`
}

type JoinRequest struct {
	RoomID          string `json:"roomId,omitempty"`
	ParticipantName string `json:"participantName"`
	Gender          string `json:"gender"`
	IsHost          bool   `json:"isHost"`
	RoomPassword    string `json:"roomPassword,omitempty"`
}

type JoinResponse struct {
	Credential string `json:"credential"`
	Channel    string `json:"channel"`
	ServerURL  string `json:"serverUrl"`
	Room       *Room  `json:"room"`
	E2EEKey    string `json:"e2eeKey"`
}
