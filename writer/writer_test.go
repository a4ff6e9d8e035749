package writer

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	capture "github.com/kylerobots/ground-texture-sim"
	"github.com/kylerobots/ground-texture-sim/core"
	"github.com/kylerobots/ground-texture-sim/logging"
)

func testCapture() capture.Capture {
	return capture.Capture{
		Image: core.Image{
			Width:       2,
			Height:      2,
			PixelFormat: PixelFormatRGB8,
			Data:        []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 10, 20, 30},
		},
		CameraInfo: core.CameraInfo{
			Width:      2,
			Height:     2,
			Intrinsics: [9]float64{100, 0, 1, 0, 100, 1, 0, 0, 1},
			Distortion: []float64{0.1, -0.2},
		},
		Pose: core.NamedPose{
			Name:        "camera",
			Position:    core.Vec3{X: 1.5, Y: -2.0, Z: 0.25},
			Orientation: core.QuaternionFromYaw(0.5),
		},
		Commanded: core.Pose2D{X: 1.5, Y: -2.0, Yaw: 0.5},
	}
}

func TestWriterCreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	_, err := New(dir, logging.Nop())
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteCaptureFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, logging.Nop())
	require.NoError(t, err)

	require.NoError(t, w.WriteCapture(testCapture()))

	// Image decodes back with the original dimensions.
	file, err := os.Open(filepath.Join(dir, "000000.png"))
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	// Pose file holds one x,y,z,roll,pitch,yaw line.
	pose, err := os.ReadFile(filepath.Join(dir, "000000.txt"))
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(string(pose)), ",")
	require.Len(t, fields, 6)
	assert.Equal(t, "1.500000", fields[0])
	assert.Equal(t, "0.500000", fields[5])

	// Calibration file holds the intrinsic matrix rows then distortion.
	calib, err := os.ReadFile(filepath.Join(dir, "000000_calib.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(calib)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "100.000000 0.000000 1.000000", lines[0])
	assert.Equal(t, "0.100000 -0.200000", lines[3])
}

func TestWriteCaptureSequentialNames(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, logging.Nop())
	require.NoError(t, err)

	require.NoError(t, w.WriteCapture(testCapture()))
	require.NoError(t, w.WriteCapture(testCapture()))

	for _, name := range []string{"000000.png", "000001.png", "000001.txt", "000001_calib.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriteCaptureRejectsUnknownPixelFormat(t *testing.T) {
	w, err := New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	c := testCapture()
	c.Image.PixelFormat = "bgra8"
	require.Error(t, w.WriteCapture(c))

	// The failed capture does not consume an index.
	require.NoError(t, w.WriteCapture(testCapture()))
	_, err = os.Stat(filepath.Join(w.Dir(), "000000.png"))
	assert.NoError(t, err)
}

func TestWriteCaptureRejectsShortData(t *testing.T) {
	w, err := New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	c := testCapture()
	c.Image.Data = c.Image.Data[:5]
	require.Error(t, w.WriteCapture(c))
}
