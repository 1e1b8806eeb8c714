package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/monitoring"
	"github.com/banshee-data/routecast/internal/pipeline"
	"github.com/banshee-data/routecast/internal/testutil"
	"github.com/banshee-data/routecast/internal/units"
)

func init() {
	monitoring.SetLogger(nil)
}

func analyzed(t *testing.T) *pipeline.Result {
	t.Helper()
	t0 := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	log := testutil.NewLogBuilder("A", "B")
	for i, h := range []string{"9.9.9.9", "9.9.9.9", "8.8.8.8", "8.8.8.8", "9.9.9.9", "NA"} {
		log.ProbeRTT(t0.Add(time.Duration(i)*time.Hour), float64(10+i), h)
	}
	res, err := pipeline.New(pipeline.Options{SlotHours: 2, HorizonHours: 6}).Run(strings.NewReader(log.String()))
	require.NoError(t, err)
	return res
}

func TestRoutePlot(t *testing.T) {
	res := analyzed(t)
	p, err := RoutePlot(res, units.RTTMin)
	require.NoError(t, err)
	assert.Equal(t, "A -> B", p.Title.Text)

	_, err = RoutePlot(&pipeline.Result{}, units.RTTMin)
	assert.Error(t, err)
}

func TestWriteRoutePlot(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	path, err := WriteRoutePlot(mfs, "/plots", analyzed(t), units.RTTMin)
	require.NoError(t, err)
	assert.Equal(t, "/plots/routes_A_B.png", path)

	data, err := mfs.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestSlotChart(t *testing.T) {
	res := analyzed(t)
	var buf bytes.Buffer
	require.NoError(t, RenderSlotChart(&buf, res))

	html := buf.String()
	assert.Contains(t, html, "Route changes per timeslot")
	assert.Contains(t, html, "01-01 02:00")
}

func TestWriteSlotChart(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	path, err := WriteSlotChart(mfs, "/plots", analyzed(t))
	require.NoError(t, err)
	assert.Equal(t, "/plots/slots_A_B.html", path)
	assert.True(t, mfs.Exists(path))
}
