package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`

	Self     SelfObs     `json:"self"`
	Voxels   VoxelsObs   `json:"voxels"`
	Entities []EntityObs `json:"entities,omitempty"`
	Events   []Event     `json:"events,omitempty"`
	Tasks    []TaskObs   `json:"tasks,omitempty"`
}

type SelfObs struct {
	Pos      [3]float64 `json:"pos"`
	Yaw      float64    `json:"yaw"`
	OnGround bool       `json:"on_ground"`
	Status   []string   `json:"status,omitempty"`
}

// VoxelsObs carries the blocks around the agent, either as a full RLE
// cube or as delta ops against the previous cube. Both use the canonical
// dy-outer, dz-middle, dx-inner scan order.
type VoxelsObs struct {
	Center   [3]int         `json:"center"`
	Radius   int            `json:"radius"`
	Encoding string         `json:"encoding"` // "RLE" or "DELTA"
	Data     string         `json:"data,omitempty"`
	Ops      []VoxelDeltaOp `json:"ops,omitempty"`
}

type VoxelDeltaOp struct {
	D [3]int `json:"d"` // delta from center (dx,dy,dz)
	B uint16 `json:"b"` // block palette id
}

type EntityObs struct {
	ID   string     `json:"id"`
	Type string     `json:"type"` // "AGENT", "ITEM", ...
	Pos  [3]float64 `json:"pos"`
}

type Event map[string]interface{}

type TaskObs struct {
	TaskID   string     `json:"task_id"`
	Kind     string     `json:"kind"`
	Progress float64    `json:"progress"`
	Target   [3]float64 `json:"target,omitempty"`
	Code     string     `json:"code,omitempty"` // set when the task failed
}

// Task kinds.
const (
	TaskMoveTo = "MOVE_TO"
	TaskLook   = "LOOK_AT"
	TaskJump   = "JUMP"
)

// ACT (client -> server)
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	AgentID         string    `json:"agent_id"`
	Tasks           []TaskReq `json:"tasks,omitempty"`
	Cancel          []string  `json:"cancel,omitempty"`
}

type TaskReq struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Target    [3]float64 `json:"target,omitempty"`
	Tolerance float64    `json:"tolerance,omitempty"`
}
