package pipeline

type readEnd interface {
	ReadConnect()
	ReadDisconnect()
}

type writeEnd interface {
	WriteConnect() error
	WriteDisconnect()
}

// wiring records the connections made while a step is added, so that they can be released when
// adding the step fails.
type wiring struct {
	undo []func()
}

func (w *wiring) connectReader(ch readEnd) {
	ch.ReadConnect()
	w.undo = append(w.undo, ch.ReadDisconnect)
}

func (w *wiring) connectWriter(ch writeEnd) error {
	if err := ch.WriteConnect(); err != nil {
		return err
	}

	w.undo = append(w.undo, ch.WriteDisconnect)

	return nil
}

// rollback releases the recorded connections, last first.
func (w *wiring) rollback() {
	for i := len(w.undo) - 1; i >= 0; i-- {
		w.undo[i]()
	}

	w.undo = nil
}
