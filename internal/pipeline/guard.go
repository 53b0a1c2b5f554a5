package pipeline

// Guard is engaged while a transfer is in flight and released when the
// session leaves the uploading phase in either direction. The browser
// original used it to install a page-unload warning; CLI frontends hook it
// to warn on interrupt instead.
type Guard interface {
	Engage()
	Release()
}

type nopGuard struct{}

func (nopGuard) Engage()  {}
func (nopGuard) Release() {}

// NopGuard returns a guard that does nothing.
func NopGuard() Guard { return nopGuard{} }
