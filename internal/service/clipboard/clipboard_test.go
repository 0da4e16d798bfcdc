package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBoard буфер в памяти; selection попадает в буфер по Copy.
type fakeBoard struct {
	text     string
	writeErr error
	writes   []string
	// nonText буфер держит картинку или файлы: ReadText падает, пока его не перезапишут
	nonText bool
}

func (b *fakeBoard) ReadText() (string, error) {
	if b.nonText {
		return "", errors.New("clipboard holds no text")
	}
	return b.text, nil
}

func (b *fakeBoard) WriteText(text string) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes = append(b.writes, text)
	b.text = text
	b.nonText = false
	return nil
}

type fakeKeyboard struct {
	board     *fakeBoard
	selection string
	pasted    []string
	copyErr   error
	pasteErr  error
}

func (k *fakeKeyboard) Copy() error {
	if k.copyErr != nil {
		return k.copyErr
	}
	if k.selection != "" {
		k.board.text = k.selection
		k.board.nonText = false
	}
	return nil
}

func (k *fakeKeyboard) Paste() error {
	if k.pasteErr != nil {
		return k.pasteErr
	}
	k.pasted = append(k.pasted, k.board.text)
	return nil
}

func newSwapper(prev, selection string) (*Swapper, *fakeBoard, *fakeKeyboard) {
	b := &fakeBoard{text: prev}
	k := &fakeKeyboard{board: b, selection: selection}
	return &Swapper{Board: b, Keyboard: k}, b, k
}

func TestCaptureAndReplace(t *testing.T) {
	s, b, k := newSwapper("user clipboard", "helo wrld")
	ctx := context.Background()

	text, err := s.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, "helo wrld", text)

	require.NoError(t, s.Replace(ctx, "Hello, world."))
	assert.Equal(t, []string{"Hello, world."}, k.pasted)
	assert.Equal(t, "user clipboard", b.text)

	// после Replace сохранённое содержимое забыто
	b.text = "other"
	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, "other", b.text)
}

func TestCaptureNothingSelected(t *testing.T) {
	s, b, _ := newSwapper("user clipboard", "")
	_, err := s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoTextSelected)
	assert.Equal(t, "user clipboard", b.text)
	// буфер очищался перед копированием
	assert.Equal(t, []string{"", "user clipboard"}, b.writes)
}

func TestCaptureLeavesNonTextClipboardAlone(t *testing.T) {
	s, b, _ := newSwapper("", "")
	b.nonText = true

	_, err := s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoTextSelected)
	assert.Empty(t, b.writes)
	assert.True(t, b.nonText)

	require.NoError(t, s.Restore(context.Background()))
	assert.Empty(t, b.writes)
	assert.True(t, b.nonText)
}

func TestCaptureOverNonTextClipboard(t *testing.T) {
	s, b, k := newSwapper("", "helo wrld")
	b.nonText = true
	ctx := context.Background()

	text, err := s.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, "helo wrld", text)
	assert.Empty(t, b.writes)

	// прежнего текста нет, поэтому после вставки восстанавливать нечего
	require.NoError(t, s.Replace(ctx, "Hello, world."))
	assert.Equal(t, []string{"Hello, world."}, k.pasted)
	assert.Equal(t, []string{"Hello, world."}, b.writes)
}

func TestCaptureCopyFails(t *testing.T) {
	s, b, k := newSwapper("keep", "x")
	k.copyErr = errors.New("no focus")
	_, err := s.Capture(context.Background())
	assert.ErrorContains(t, err, "no focus")
	assert.Equal(t, "keep", b.text)
}

func TestCaptureCanceled(t *testing.T) {
	s, b, _ := newSwapper("keep", "x")
	s.CopyDelay = 1 << 40
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "keep", b.text)
}

func TestRestoreAfterCapture(t *testing.T) {
	s, b, k := newSwapper("keep", "selected")
	ctx := context.Background()
	_, err := s.Capture(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, "keep", b.text)
	assert.Empty(t, k.pasted)
}

func TestReplacePasteFails(t *testing.T) {
	s, b, k := newSwapper("keep", "selected")
	ctx := context.Background()
	_, err := s.Capture(ctx)
	require.NoError(t, err)

	k.pasteErr = errors.New("denied")
	err = s.Replace(ctx, "better")
	assert.ErrorIs(t, err, ErrReplaceFailed)
	assert.NotErrorIs(t, err, ErrRestoreFailed)
	assert.Equal(t, "keep", b.text)
}

// restoreFailBoard принимает первую запись и отказывает в следующих.
type restoreFailBoard struct {
	fakeBoard
	allowed int
}

func (b *restoreFailBoard) WriteText(text string) error {
	if b.allowed == 0 {
		return errors.New("locked")
	}
	b.allowed--
	return b.fakeBoard.WriteText(text)
}

func TestReplaceRestoreFails(t *testing.T) {
	b := &restoreFailBoard{fakeBoard: fakeBoard{text: "keep"}, allowed: 1}
	k := &fakeKeyboard{board: &b.fakeBoard}
	saved := "keep"
	s := &Swapper{Board: b, Keyboard: k, saved: &saved}

	err := s.Replace(context.Background(), "better")
	assert.ErrorIs(t, err, ErrRestoreFailed)
	assert.NotErrorIs(t, err, ErrReplaceFailed)
	assert.Equal(t, []string{"better"}, k.pasted)
}
