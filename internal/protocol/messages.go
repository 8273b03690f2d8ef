package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	AgentName       string            `json:"agent_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	DeltaVoxels bool `json:"delta_voxels,omitempty"`
	MaxQueue    int  `json:"max_queue,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id,omitempty"`
	AgentID         string      `json:"agent_id"`
	ResumeToken     string      `json:"resume_token,omitempty"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    PaletteRef  `json:"block_palette"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	ObsRadius  int   `json:"obs_radius"`
	Height     int   `json:"height"`
	Seed       int64 `json:"seed"`
}

// PaletteRef carries the block palette inline; id order defines the raw
// palette indices used by voxel payloads.
type PaletteRef struct {
	Digest string   `json:"digest"`
	IDs    []string `json:"ids"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
