package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Модификаторы в кодировке RegisterHotKey.
const (
	ModAlt     uint32 = 0x0001
	ModControl uint32 = 0x0002
	ModShift   uint32 = 0x0004
	ModWin     uint32 = 0x0008
)

// Combo разобранное сочетание клавиш: модификаторы и виртуальный код клавиши.
type Combo struct {
	Modifiers uint32
	Key       uint32
	text      string
}

func (c Combo) String() string { return c.text }

var modifierNames = map[string]uint32{
	"ctrl":    ModControl,
	"control": ModControl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"win":     ModWin,
	"cmd":     ModWin,
	"super":   ModWin,
}

var namedKeys = map[string]uint32{
	"enter":  0x0D,
	"return": 0x0D,
	"space":  0x20,
	"tab":    0x09,
	"insert": 0x2D,
}

// Parse разбирает сочетание вида "ctrl+alt+shift+c". Нужен хотя бы один модификатор
// и ровно одна клавиша: буква, цифра, f1..f24 или enter/space/tab/insert.
func Parse(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var c Combo
	keySet := false
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty part", s)
		}
		if m, ok := modifierNames[p]; ok {
			c.Modifiers |= m
			continue
		}
		vk, ok := keyCode(p)
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, p)
		}
		if keySet {
			return Combo{}, fmt.Errorf("hotkey %q: more than one key", s)
		}
		c.Key, keySet = vk, true
	}
	if !keySet {
		return Combo{}, fmt.Errorf("hotkey %q: no key", s)
	}
	if c.Modifiers == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: at least one modifier is required", s)
	}
	c.text = strings.Join(parts, "+")
	return c, nil
}

func keyCode(p string) (uint32, bool) {
	if vk, ok := namedKeys[p]; ok {
		return vk, true
	}
	if len(p) == 1 {
		switch ch := p[0]; {
		case ch >= 'a' && ch <= 'z':
			return uint32(ch-'a') + 0x41, true
		case ch >= '0' && ch <= '9':
			return uint32(ch-'0') + 0x30, true
		}
	}
	if strings.HasPrefix(p, "f") {
		if n, err := strconv.Atoi(p[1:]); err == nil && n >= 1 && n <= 24 {
			return 0x70 + uint32(n-1), true
		}
	}
	return 0, false
}
