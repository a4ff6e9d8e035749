package capture

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kylerobots/ground-texture-sim/core"
)

// Sink receives the captured triple for each converged pose. The writer
// package provides the on-disk implementation; it owns filenames and
// encodings.
type Sink interface {
	WriteCapture(capture Capture) error
}

// CaptureTrajectory walks the camera through each pose in order, handing
// every converged capture to the sink. The first failure stops the walk:
// earlier captures stay written, the error names the pose that failed and
// why. A nil error means every pose was captured.
func (f *Follower) CaptureTrajectory(ctx context.Context, trajectory []core.Pose2D, sink Sink) error {
	for i, pose := range trajectory {
		capture, err := f.CapturePose(ctx, pose)
		if err != nil {
			return &TrajectoryError{Index: i, Pose: pose, Err: err}
		}
		if err := sink.WriteCapture(capture); err != nil {
			return &TrajectoryError{Index: i, Pose: pose, Err: fmt.Errorf("write capture: %w", err)}
		}
		f.log.Info().
			Int("pose", i).
			Int("total", len(trajectory)).
			Float64("x", capture.Commanded.X).
			Float64("y", capture.Commanded.Y).
			Float64("yaw", capture.Commanded.Yaw).
			Msg("pose captured")
	}
	return nil
}

// ParseTrajectory reads a trajectory from CSV. Each non-blank line holds
// x, y, yaw; a line with fewer than three values or a value that does not
// parse is an error, extra values are ignored with a warning.
func ParseTrajectory(r io.Reader, log zerolog.Logger) ([]core.Pose2D, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var trajectory []core.Pose2D
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trajectory line %d: %w", line+1, err)
		}
		line++
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("trajectory line %d: need x, y, yaw, got %d values", line, len(record))
		}
		if len(record) > 3 {
			log.Warn().Int("line", line).Int("values", len(record)).Msg("extra trajectory values ignored")
		}
		var values [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("trajectory line %d: parse %q: %w", line, record[i], err)
			}
			values[i] = v
		}
		trajectory = append(trajectory, core.Pose2D{X: values[0], Y: values[1], Yaw: values[2]})
	}
	return trajectory, nil
}
