package server

// Status is the lifecycle state of a connected user.
type Status string

const (
	StatusConnecting     Status = "CONNECTING"
	StatusOnline         Status = "ONLINE"
	StatusIdle           Status = "IDLE"
	StatusSearchingMatch Status = "SEARCHING_MATCH"
	StatusInGame         Status = "IN_GAME"
	StatusSpectating     Status = "SPECTATING"
	StatusOffline        Status = "OFFLINE"
)
