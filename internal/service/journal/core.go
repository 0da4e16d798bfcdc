package journal

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Core возвращает zapcore.Core, который дублирует записи логгера в журнал.
// Подключается через zapcore.NewTee рядом с основным ядром.
func (j *Journal) Core(enab zapcore.LevelEnabler) zapcore.Core {
	return &core{LevelEnabler: enab, journal: j}
}

type core struct {
	zapcore.LevelEnabler
	journal *Journal
	fields  []zapcore.Field
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(slices.Clone(c.fields), fields...)
	return &clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	msg := ent.Message
	if len(enc.Fields) > 0 {
		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		var b strings.Builder
		b.WriteString(msg)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, enc.Fields[k])
		}
		msg = b.String()
	}

	c.journal.Append(levelOf(ent.Level), msg)
	return nil
}

func (c *core) Sync() error { return nil }

func levelOf(l zapcore.Level) Level {
	switch {
	case l >= zapcore.ErrorLevel:
		return LevelError
	case l == zapcore.WarnLevel:
		return LevelWarning
	default:
		return LevelInfo
	}
}
