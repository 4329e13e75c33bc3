package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestChainedLevelCalls(t *testing.T) {
	// L and Ctx return pointers so level methods chain directly off
	// the call; these emit against the global logger.
	L().Debug().Str(FieldConnID, "c1").Msg("chained debug")
	L().Info().Msg("chained info")
	Ctx(context.Background()).Warn().Msg("chained warn")
}

func TestCtxReturnsScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	scoped := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), scoped)

	Ctx(ctx).Info().Str(FieldRoomID, "aa").Msg("scoped entry")

	out := buf.String()
	if !strings.Contains(out, "scoped entry") {
		t.Fatalf("scoped logger not used: %q", out)
	}
	if !strings.Contains(out, `"room_id":"aa"`) {
		t.Fatalf("field missing: %q", out)
	}
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	if Ctx(context.Background()) != L() {
		t.Fatal("bare context must yield the global logger")
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger := New(Config{Level: "warn"})
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", logger.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
