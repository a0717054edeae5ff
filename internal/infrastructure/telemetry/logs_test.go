package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type exportedLog struct {
	body     string
	severity string
	scope    string
}

type memoryLogExporter struct {
	mu   sync.Mutex
	logs []exportedLog
}

func (e *memoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.logs = append(e.logs, exportedLog{
			body:     r.Body().AsString(),
			severity: r.SeverityText(),
			scope:    r.InstrumentationScope().Name,
		})
	}
	return nil
}

func (e *memoryLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryLogExporter) exported() []exportedLog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]exportedLog(nil), e.logs...)
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false, ServiceName: "retreat-ledger-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
}

func TestLoggerProvider_Bridge(t *testing.T) {
	ctx := context.Background()
	exporter := &memoryLogExporter{}

	lp, err := newLoggerProvider(LogsConfig{Enabled: true, ServiceName: "retreat-ledger-test"},
		sdklog.NewSimpleProcessor(exporter), zap.NewNop())
	require.NoError(t, err)
	require.True(t, lp.IsEnabled())
	t.Cleanup(func() { _ = lp.Shutdown(ctx) })

	core, observed := observer.New(zapcore.DebugLevel)
	log := lp.Bridge(zap.New(core), zapcore.InfoLevel)

	log.Debug("seeding dedup session")
	log.Info("import finished", zap.Int("created", 7))
	log.With(zap.String("ledger_id", "abc")).Warn("discount snapshot missing")
	require.NoError(t, lp.ForceFlush(ctx))

	assert.Equal(t, 3, observed.Len(), "base core keeps every entry")

	logs := exporter.exported()
	require.Len(t, logs, 2, "debug entries are filtered from the bridge")
	assert.Equal(t, "import finished", logs[0].body)
	assert.Equal(t, "info", logs[0].severity)
	assert.Equal(t, "retreat-ledger-test", logs[0].scope)
	assert.Equal(t, "discount snapshot missing", logs[1].body)
	assert.Equal(t, "warn", logs[1].severity)
}

func TestLevelFilterCore(t *testing.T) {
	inner, observed := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	log := zap.New(core.With([]zapcore.Field{zap.String("k", "v")}))
	log.Info("dropped")
	log.Error("kept")

	require.Equal(t, 1, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "v", entry.ContextMap()["k"])
}
