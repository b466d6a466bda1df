package shutdown

import (
	"os"
	"os/signal"
)

// Notifier forwards to os/signal.
type Notifier struct{}

func NewNotifier() Notifier {
	return Notifier{}
}

func (Notifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (Notifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}
