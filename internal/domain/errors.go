package domain

type RestartInProgressError struct{}

func (e RestartInProgressError) Error() string {
	return "restart already in progress"
}

type NoPendingRestartError struct{}

func (e NoPendingRestartError) Error() string {
	return "no restart awaiting confirmation"
}
