//go:build windows

package hotkey

import (
	"context"
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
)

// Обёртки для функций, которых может не быть в lxn/win
var (
	user32               = syscall.NewLazyDLL("user32.dll")
	procRegisterHotKey   = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32.NewProc("UnregisterHotKey")
)

const (
	hotkeyID    = 1
	modNoRepeat = 0x4000
)

type winListener struct {
	combo Combo
}

func newPlatformListener(c Combo) (listener, error) { return &winListener{combo: c}, nil }

func (w *winListener) run(ctx context.Context, out chan<- Event) error {
	// UI/WinAPI должен жить в закрепленном системном потоке
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className := syscall.StringToUTF16Ptr("ButlerHotkeyWindowClass")

	var wc win.WNDCLASSEX
	wc.CbSize = uint32(unsafe.Sizeof(wc))
	wc.LpfnWndProc = syscall.NewCallback(func(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
		switch msg {
		case win.WM_HOTKEY:
			if wParam == hotkeyID {
				select {
				case out <- Event{At: time.Now()}:
				default:
				}
			}
			return 0
		case win.WM_DESTROY:
			win.PostQuitMessage(0)
			return 0
		}
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	})
	wc.HInstance = win.GetModuleHandle(nil)
	wc.HCursor = win.LoadCursor(0, (*uint16)(unsafe.Pointer(uintptr(win.IDC_ARROW))))
	wc.LpszClassName = className
	// 0: класс уже зарегистрирован прошлым запуском, CreateWindowEx всё равно сработает
	_ = win.RegisterClassEx(&wc)

	hwnd := win.CreateWindowEx(
		0,
		className,
		syscall.StringToUTF16Ptr("ButlerHotkeyWindow"),
		0,
		0, 0, 0, 0,
		0,
		0,
		wc.HInstance,
		nil,
	)
	if hwnd == 0 {
		return fmt.Errorf("hotkey: create hidden window failed")
	}

	if !registerHotKey(hwnd, hotkeyID, w.combo.Modifiers|modNoRepeat, w.combo.Key) {
		win.DestroyWindow(hwnd)
		return fmt.Errorf("hotkey: %s is already taken by another application", w.combo)
	}

	// Параллельно следим за ctx и закрываем окно: WM_CLOSE → WM_DESTROY → WM_QUIT
	go func() {
		<-ctx.Done()
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	}()

	msg := new(win.MSG)
	for {
		r := win.GetMessage(msg, 0, 0, 0)
		if r == 0 || r == -1 { // WM_QUIT или ошибка
			break
		}
		win.TranslateMessage(msg)
		win.DispatchMessage(msg)
	}

	unregisterHotKey(hwnd, hotkeyID)
	return nil
}

func registerHotKey(hwnd win.HWND, id int32, modifiers uint32, vk uint32) bool {
	if procRegisterHotKey.Find() != nil {
		return false
	}
	r, _, _ := procRegisterHotKey.Call(uintptr(hwnd), uintptr(id), uintptr(modifiers), uintptr(vk))
	return r != 0
}

func unregisterHotKey(hwnd win.HWND, id int32) bool {
	if procUnregisterHotKey.Find() != nil {
		return false
	}
	r, _, _ := procUnregisterHotKey.Call(uintptr(hwnd), uintptr(id))
	return r != 0
}
