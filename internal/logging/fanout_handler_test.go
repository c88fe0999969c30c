package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if newFanoutHandler(nil, inner, nil) != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

// The daemon pairs an info-level console handler with a debug-level file
// handler; each must only see the records its level admits.
func TestFanoutHandlerRoutesByLevel(t *testing.T) {
	cases := []struct {
		name        string
		log         func(*slog.Logger)
		wantConsole bool
		wantFile    bool
	}{
		{"debug reaches file only", func(l *slog.Logger) { l.Debug("claimed job") }, false, true},
		{"info reaches both", func(l *slog.Logger) { l.Info("image stored") }, true, true},
		{"error reaches both", func(l *slog.Logger) { l.Error("video failed") }, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var console, file bytes.Buffer
			h := newFanoutHandler(
				slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
				slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
			)
			tc.log(slog.New(h))
			if got := console.Len() > 0; got != tc.wantConsole {
				t.Fatalf("console received=%v want %v", got, tc.wantConsole)
			}
			if got := file.Len() > 0; got != tc.wantFile {
				t.Fatalf("file received=%v want %v", got, tc.wantFile)
			}
		})
	}
}

func TestFanoutHandlerEnabledIfAnyChildIs(t *testing.T) {
	h := newFanoutHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be disabled")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("expected warn to be enabled")
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	slog.New(h.WithAttrs([]slog.Attr{slog.String(FieldProjectID, "proj-1")}).WithGroup("shot")).
		Info("stored", slog.String("id", "shot-1"))

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		out := buf.String()
		if !bytes.Contains([]byte(out), []byte(`"project_id":"proj-1"`)) || !bytes.Contains([]byte(out), []byte(`"shot":{"id":"shot-1"}`)) {
			t.Fatalf("%s handler missing attrs or group: %s", name, out)
		}
	}
}
