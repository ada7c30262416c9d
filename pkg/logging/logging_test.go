package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelDebug)
	ctx := AppendCtx(context.Background(), slog.String("run", "abc"))
	ctx = AppendCtx(ctx, slog.Int("scan", 2))
	log.InfoContext(ctx, "hello", slog.Int("width", 8))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "abc", rec["run"])
	assert.EqualValues(t, 2, rec["scan"])
	assert.EqualValues(t, 8, rec["width"])
}

func TestAppendCtxDoesNotShareSlice(t *testing.T) {
	base := AppendCtx(context.Background(), slog.String("a", "1"))
	left := AppendCtx(base, slog.String("b", "2"))
	right := AppendCtx(base, slog.String("c", "3"))

	l := left.Value(slogFields).([]slog.Attr)
	r := right.Value(slogFields).([]slog.Attr)
	assert.Equal(t, "b", l[1].Key)
	assert.Equal(t, "c", r[1].Key)
	assert.Len(t, base.Value(slogFields).([]slog.Attr), 1)
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelWarn)
	log.Info("dropped")
	assert.Zero(t, buf.Len())
	log.WithGroup("g").With(slog.String("k", "v")).Warn("kept")
	assert.Contains(t, buf.String(), "g.k=v")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.err, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jlsctl.log")
	w := RotatingFile(path, 1, 2)
	log := Logger(w, false, slog.LevelInfo)
	log.Info("written")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=written")
}
