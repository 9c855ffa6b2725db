package authsvc

// Notifier receives the outcome of each auth operation, the console analogue
// of the transient banners the web console flashes after login and reset
// actions. Both branches fire: success with a short confirmation, failure
// with the operator-facing message.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// nopNotifier keeps the service quiet when the caller owns all output.
type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
