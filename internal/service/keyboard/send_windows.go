//go:build windows

package keyboard

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

var (
	user32        = syscall.NewLazyDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1
	keyEventKeyUp = 0x0002
	vkLeftWin     = 0x5B
	vkRightWin    = 0x5C
)

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input повторяет раскладку INPUT для x64; хвост добивает union до размера MOUSEINPUT
type input struct {
	typ uint32
	ki  keybdInput
	_   [8]byte
}

func key(vk uint16, up bool) input {
	in := input{typ: inputKeyboard, ki: keybdInput{wVk: vk}}
	if up {
		in.ki.dwFlags = keyEventKeyUp
	}
	return in
}

// sendChord отпускает модификаторы горячей клавиши (они ещё зажаты пользователем),
// затем жмёт Ctrl+vk.
func sendChord(vk uint16) error {
	if err := procSendInput.Find(); err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}
	seq := []input{
		key(win.VK_MENU, true),
		key(win.VK_SHIFT, true),
		key(vkLeftWin, true),
		key(vkRightWin, true),
		key(win.VK_CONTROL, false),
		key(vk, false),
		key(vk, true),
		key(win.VK_CONTROL, true),
	}
	n, _, err := procSendInput.Call(
		uintptr(len(seq)),
		uintptr(unsafe.Pointer(&seq[0])),
		unsafe.Sizeof(seq[0]),
	)
	if int(n) != len(seq) {
		return fmt.Errorf("keyboard: SendInput sent %d of %d events: %v", n, len(seq), err)
	}
	return nil
}
