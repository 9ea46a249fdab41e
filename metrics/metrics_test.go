package metrics

import (
	"strings"
	"testing"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.EventLogged(types.ActionLogin)
	m.EventLogged(types.ActionLogin)
	m.EventLogged("blogname")
	m.EventLogged("widget_sidebar_" + strings.Repeat("x", 20))
	m.LogFailed()
	m.RetentionDeleted(4)
	m.RetentionDeleted(0)
	m.CodeChanges(2)
	m.ActiveActors(3)

	require.Equal(t, 2.0, testutil.ToFloat64(m.EventsLogged.WithLabelValues(types.ActionLogin)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.EventsLogged.WithLabelValues(OptionUpdatedLabel)))
	require.Equal(t, 2, testutil.CollectAndCount(m.EventsLogged))
	require.Equal(t, 1.0, testutil.ToFloat64(m.LogFailures))
	require.Equal(t, 4.0, testutil.ToFloat64(m.RetentionDeletedTotal))
	require.Equal(t, 2.0, testutil.ToFloat64(m.CodeChangesTotal))
	require.Equal(t, 3.0, testutil.ToFloat64(m.ActiveActorCount))

	m.ActiveActors(1)
	require.Equal(t, 1.0, testutil.ToFloat64(m.ActiveActorCount))
}

func TestMetricsRegisterOnProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	require.Contains(t, names, "tracker_log_failures_total")
	require.Contains(t, names, "tracker_active_actors")
}
