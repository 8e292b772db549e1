package schedule_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/schedule"
	"github.com/anggasct/mavmon/pkg/utils"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func drain(s *schedule.Schedule) []core.ScheduleEvent {
	var out []core.ScheduleEvent
	for !s.IsEmpty() {
		out = append(out, s.Front())
		s.Pop()
	}
	return out
}

func TestBuildText(t *testing.T) {
	path := writeFile(t, "day.txt", `# time train direction
5 3 W
0 1 North
0,2,e   # same second, file order kept
12	4	2
`)

	s, err := schedule.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())

	assert.Equal(t, []core.ScheduleEvent{
		{ArrivalTime: 0, TrainID: 1, Direction: core.North},
		{ArrivalTime: 0, TrainID: 2, Direction: core.East},
		{ArrivalTime: 5, TrainID: 3, Direction: core.West},
		{ArrivalTime: 12, TrainID: 4, Direction: core.South},
	}, drain(s))
	assert.True(t, s.IsEmpty())
}

func TestBuildYAML(t *testing.T) {
	path := writeFile(t, "day.yaml", `events:
  - {time: 3, train: 10, direction: south}
  - {time: 1, train: 11, direction: W}
  - {time: 1, train: 12, direction: 1}
`)

	s, err := schedule.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []core.ScheduleEvent{
		{ArrivalTime: 1, TrainID: 11, Direction: core.West},
		{ArrivalTime: 1, TrainID: 12, Direction: core.East},
		{ArrivalTime: 3, TrainID: 10, Direction: core.South},
	}, s.Events())
	assert.Equal(t, 3, s.Len(), "Events does not consume")
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		line    int
	}{
		{"too few fields", "a.txt", "0 1\n", 1},
		{"bad direction", "b.txt", "0 1 N\n1 2 up\n", 2},
		{"bad time", "c.txt", "soon 1 N\n", 1},
		{"reserved id", "d.txt", "0 0 N\n", 1},
		{"duplicate id", "e.txt", "0 1 N\n\n3 1 S\n", 3},
		{"negative time", "f.txt", "-1 1 N\n", 1},
		{"unknown yaml field", "g.yaml", "events:\n  - {time: 1, train: 1, direction: N, speed: 3}\n", 0},
		{"duplicate yaml id", "h.yml", "events:\n  - {time: 1, train: 1, direction: N}\n  - {time: 2, train: 1, direction: E}\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := schedule.Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrSchedule))

			var se *utils.ScheduleError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, path, se.Path)
			if tt.line > 0 {
				assert.Equal(t, tt.line, se.Line)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := schedule.Load(filepath.Join(t.TempDir(), "nope.txt"))
		assert.True(t, errors.Is(err, utils.ErrSchedule))
	})
}

func TestEmptySchedule(t *testing.T) {
	s, err := schedule.Load(writeFile(t, "empty.txt", "# nothing today\n\n"))
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
	assert.Panics(t, func() { s.Front() })

	s, err = schedule.Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
}
