package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_EmptyOutputPathsRejected(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewDefaultAndDevelopmentLoggers(t *testing.T) {
	assert.NotNil(t, NewDefaultLogger())
	assert.NotNil(t, NewDevelopmentLogger())
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	l.Fatal("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
}

func TestZapLogger_LevelsWrite(t *testing.T) {
	cases := map[string]func(Logger, string){
		"debug": func(l Logger, m string) { l.Debug(m) },
		"info":  func(l Logger, m string) { l.Info(m) },
		"warn":  func(l Logger, m string) { l.Warn(m) },
		"error": func(l Logger, m string) { l.Error(m) },
	}
	for level, emit := range cases {
		t.Run(level, func(t *testing.T) {
			l, buf := newTestLogger(t)
			emit(l, level+" msg")
			assert.Contains(t, buf.String(), level+" msg")
			assert.Contains(t, buf.String(), "\"level\":\""+level+"\"")
		})
	}
}

func TestZapLogger_With_AddsFields(t *testing.T) {
	l, buf := newTestLogger(t)
	l.With(String("pattern", "C-C"), Int("matches", 3)).Info("msg")
	assert.Contains(t, buf.String(), "\"pattern\":\"C-C\"")
	assert.Contains(t, buf.String(), "\"matches\":3")
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Error(errors.New("boom")))
	assert.Equal(t, "[0,2,5]", Ints("mapping", []int{0, 2, 5}).Value)
	assert.Equal(t, "[]", Ints("mapping", nil).Value)
	assert.Equal(t, time.Second, Duration("d", time.Second).Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNewLoggerFromCore_Observed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggerFromCore(core).Named("matcher")
	l.Debug("hidden")
	l.Info("visible", Bool("strict", true))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "visible", entry.Message)
	assert.Equal(t, "matcher", entry.LoggerName)
	assert.Equal(t, true, entry.ContextMap()["strict"])
}

func TestLogOperationDuration(t *testing.T) {
	l, buf := newTestLogger(t)
	LogOperationDuration(l, "match_all", time.Now(), String("pattern", "c1ccccc1"))
	assert.Contains(t, buf.String(), "operation completed")
	assert.Contains(t, buf.String(), "\"operation\":\"match_all\"")
	assert.Contains(t, buf.String(), "duration_ms")

	buf.Reset()
	LogOperationDuration(l, "slow", time.Now().Add(-2*time.Second))
	assert.Contains(t, buf.String(), "slow operation")
	assert.Contains(t, buf.String(), "\"level\":\"warn\"")
}

func TestContextLogger(t *testing.T) {
	l, buf := newTestLogger(t)
	ctx := ContextWithLogger(context.Background(), l)
	FromContext(ctx).Info("from ctx")
	assert.Contains(t, buf.String(), "from ctx")

	//nolint:staticcheck
	assert.Equal(t, Default(), FromContext(nil))
	assert.Equal(t, Default(), FromContext(context.Background()))
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())
	SetDefault(nil)
	assert.Equal(t, l, Default())
}

//Personal.AI order the ending
