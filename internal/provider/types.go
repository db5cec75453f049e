package provider

// ResultState classifies a status poll. Terminal states demand a job
// transition; Retry and Processing both reschedule, but only Retry counts
// as a failed attempt.
type ResultState int

const (
	// StateProcessing means the provider is still working on the job
	StateProcessing ResultState = iota
	// StateRetry means the status call itself failed transiently and
	// should be tried again later
	StateRetry
	// StateCompleted means the job finished and ResultRef points at the artifact
	StateCompleted
	// StateFailed means the provider rejected or permanently failed the job
	StateFailed
)

func (s ResultState) String() string {
	switch s {
	case StateProcessing:
		return "processing"
	case StateRetry:
		return "retry"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the classified outcome of one status poll
type Result struct {
	State ResultState
	// ResultRef is set only when State is StateCompleted
	ResultRef string
	// FailureReason is set only when State is StateFailed
	FailureReason string
	// RetryCause describes why a StateRetry result could not be classified
	RetryCause string
}

// completed builds a terminal success result
func completed(resultRef string) Result {
	return Result{State: StateCompleted, ResultRef: resultRef}
}

// failed builds a terminal failure result
func failed(reason string) Result {
	return Result{State: StateFailed, FailureReason: reason}
}

// retry builds a transient result
func retry(cause string) Result {
	return Result{State: StateRetry, RetryCause: cause}
}

// stillProcessing builds a not-yet-done result
func stillProcessing() Result {
	return Result{State: StateProcessing}
}
