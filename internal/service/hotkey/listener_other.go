//go:build !windows

package hotkey

func newPlatformListener(Combo) (listener, error) {
	return nil, ErrUnsupported
}
