// Package keyboard синтезирует системные сочетания копирования и вставки.
package keyboard

import "errors"

// ErrUnsupported синтез нажатий недоступен на этой платформе.
var ErrUnsupported = errors.New("keyboard: synthetic key presses are not supported on this platform")

// Keyboard отправляет Ctrl+C / Ctrl+V активному окну.
type Keyboard interface {
	Copy() error
	Paste() error
}

// System клавиатура текущей ОС.
type System struct{}

func (System) Copy() error  { return sendChord('C') }
func (System) Paste() error { return sendChord('V') }
