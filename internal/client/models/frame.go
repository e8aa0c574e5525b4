package models

// Stream frame types exchanged over the live channel.
const (
	FrameTypeSubscribe = "subscribe"
	FrameTypeMessage   = "message"
	FrameTypeActivity  = "activity"
)

// StreamFrame is the JSON frame format of the live channel.
//
// Client -> server: {type:"subscribe", conversationId} and
// {type:"message", conversationId, content, userId, authToken}.
// Server -> client: {type:"activity", conversationId}, a hint that the
// conversation has new activity. The payload never carries plaintext;
// the client re-fetches and decrypts locally.
type StreamFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Content        string `json:"content,omitempty"`
	UserID         string `json:"userId,omitempty"`
	AuthToken      string `json:"authToken,omitempty"`
}
