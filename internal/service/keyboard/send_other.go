//go:build !windows

package keyboard

func sendChord(uint16) error { return ErrUnsupported }
