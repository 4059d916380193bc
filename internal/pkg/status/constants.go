package status

//Status represents session status
type Status int

const (
	// Received - audio accepted, pipeline running
	Received Status = iota + 1
	// Completed - final step, feedback persisted
	Completed
	// Failed - pipeline aborted by an upstream error
	Failed
)

var statusName = map[Status]string{Received: "RECEIVED", Completed: "COMPLETED",
	Failed: "FAILED"}

func (st Status) String() string {
	return statusName[st]
}
