package notify

// Notifier is a fire-and-forget message sink. Implementations must never
// block the caller or propagate failures into the engine.
type Notifier interface {
	Notify(text string)
}

// Nop discards all messages.
type Nop struct{}

func (Nop) Notify(string) {}
