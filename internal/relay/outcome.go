package relay

// Outcome is how a single version ended: Completed, Empty, UpstreamFailed or CallerGone
type Outcome interface {
	isOutcome()
	String() string
}

// Completed means the upstream finished after producing text
type Completed struct{}

// Empty means the upstream finished without producing any text
type Empty struct{}

// UpstreamFailed means the upstream call failed before finishing, including timeouts
type UpstreamFailed struct {
	Err error
}

// CallerGone means the caller disconnected or stopped accepting writes
type CallerGone struct {
	Err error
}

func (Completed) isOutcome()      {}
func (Empty) isOutcome()          {}
func (UpstreamFailed) isOutcome() {}
func (CallerGone) isOutcome()     {}

func (Completed) String() string      { return "completed" }
func (Empty) String() string          { return "empty" }
func (UpstreamFailed) String() string { return "upstream_failed" }
func (CallerGone) String() string     { return "caller_gone" }
