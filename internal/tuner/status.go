package tuner

// Tag enumerates the status tags a Tuner emits to its Controller (§3, §4.2).
type Tag string

const (
	TagPause  Tag = "PAUSE"
	TagScan   Tag = "SCAN"
	TagHold   Tag = "HOLD"
	TagListen Tag = "LISTEN"
	TagStop   Tag = "STOP"
	TagState  Tag = "STATE"
	TagErr    Tag = "ERR"
	TagFail   Tag = "FAIL"
)

// Status is a single Tuner→Controller status event: (tag, timestamp,
// (cmd_id, payload)) per §3. CmdID is -1 for internally-originated events
// (not a reply to any Supervisor token). Payload varies by Tag: a
// chanspec.ScanPattern for SCAN, a "ch:width" string for HOLD/LISTEN, a
// state name for STATE, an error for FAIL, and for ERR a diagnostic string
// (or the NIC error when a listen command's channel change fails).
type Status struct {
	Tag       Tag
	Timestamp float64
	CmdID     int
	Payload   any
}

// State is one of the Tuner's four control states plus the terminal STOP.
type State string

const (
	StateScan   State = "SCAN"
	StateHold   State = "HOLD"
	StatePause  State = "PAUSE"
	StateListen State = "LISTEN"
	StateStop   State = "STOP"
)
