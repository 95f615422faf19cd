package messages

// JoinRequest is sent by a client after connecting to announce its role.
type JoinRequest struct {
	Version string
	Name    string
	Role    string
}

// JoinAccepted is sent by the server when a client's join request is accepted.
type JoinAccepted struct {
	PeerID     string
	ServerName string
	TickRate   int
	ChunkSize  int
}

// JoinRejected is sent by the server when a client's join request is rejected.
type JoinRejected struct {
	Reason string
}
