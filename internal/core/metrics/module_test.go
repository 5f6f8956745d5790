package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-reactive/config"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Provides 测试模块提供的类型
func TestModule_Provides(t *testing.T) {
	var reporter Reporter

	app := fxtest.New(t,
		Module,
		fx.Populate(&reporter),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, reporter)
	reporter.LogEmit("clicks")
	assert.Equal(t, int64(1), reporter.Totals().Emitted)
}

// TestModule_Disabled 测试关闭指标
func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enabled = false

	var reporter Reporter
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&reporter),
	)
	defer app.RequireStart().RequireStop()

	reporter.LogEmit("clicks")
	assert.Equal(t, Stats{}, reporter.Totals())
}

// TestModule_RegistersCollector 测试注册 Prometheus 收集器
func TestModule_RegistersCollector(t *testing.T) {
	registry := prometheus.NewRegistry()

	var reporter Reporter
	app := fxtest.New(t,
		fx.Provide(func() prometheus.Registerer { return registry }),
		Module,
		fx.Populate(&reporter),
	)
	app.RequireStart()

	reporter.LogEmit("clicks")
	reporter.LogSubscribers("clicks", 1)

	count, err := testutil.GatherAndCount(registry)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	app.RequireStop()

	count, err = testutil.GatherAndCount(registry)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// ============================================================================
// Collector 测试
// ============================================================================

// TestCollector_Metrics 测试导出的指标值
func TestCollector_Metrics(t *testing.T) {
	counter := NewFlowCounter()
	counter.LogEmit("a")
	counter.LogEmit("a")
	counter.LogDrop("a", 1)

	collector := NewCollector(counter)
	assert.Equal(t, 5, testutil.CollectAndCount(collector))
	assert.Equal(t, 1, testutil.CollectAndCount(collector, "reactive_flow_dropped_total"))

	counter.LogFirstEvent("a", 0)
	assert.Equal(t, 6, testutil.CollectAndCount(collector))
}
