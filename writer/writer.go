// Package writer persists captured data. Each capture produces three files
// sharing a zero-padded six digit index: the PNG image, a CSV pose line,
// and a calibration text file.
package writer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	capture "github.com/kylerobots/ground-texture-sim"
	"github.com/kylerobots/ground-texture-sim/core"
)

// PixelFormatRGB8 is the only frame format the simulated camera emits
const PixelFormatRGB8 = "rgb8"

// Writer writes captures into one output directory with sequential names
type Writer struct {
	dir   string
	index int
	log   zerolog.Logger
}

// New creates the output directory if needed and returns a writer starting
// at index zero
func New(dir string, log zerolog.Logger) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Writer{dir: dir, log: log}, nil
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteCapture writes the image, pose, and calibration files for one
// capture. The index only advances when all three files were written, so a
// failed capture never leaves a gap in the sequence.
func (w *Writer) WriteCapture(c capture.Capture) error {
	base := filepath.Join(w.dir, fmt.Sprintf("%06d", w.index))
	if err := w.writeImage(base+".png", c.Image); err != nil {
		return err
	}
	if err := w.writePose(base+".txt", c.Pose); err != nil {
		return err
	}
	if err := w.writeCameraInfo(base+"_calib.txt", c.CameraInfo); err != nil {
		return err
	}
	w.log.Debug().Str("base", base).Msg("capture written")
	w.index++
	return nil
}

func (w *Writer) writeImage(path string, img core.Image) error {
	if img.PixelFormat != PixelFormatRGB8 {
		return fmt.Errorf("write %s: unsupported pixel format %q", path, img.PixelFormat)
	}
	if len(img.Data) != img.Width*img.Height*3 {
		return fmt.Errorf("write %s: image data is %d bytes, want %d", path, len(img.Data), img.Width*img.Height*3)
	}
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 3
			out.SetNRGBA(x, y, color.NRGBA{
				R: img.Data[i],
				G: img.Data[i+1],
				B: img.Data[i+2],
				A: 0xff,
			})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, out); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// writePose records the full reported pose as one CSV line:
// x,y,z,roll,pitch,yaw
func (w *Writer) writePose(path string, pose core.NamedPose) error {
	roll, pitch, yaw := core.RPYFromQuaternion(pose.Orientation)
	line := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
		pose.Position.X, pose.Position.Y, pose.Position.Z, roll, pitch, yaw)
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeCameraInfo records the 3x3 intrinsic matrix one row per line, then
// the distortion coefficients on a final line
func (w *Writer) writeCameraInfo(path string, info core.CameraInfo) error {
	var out string
	for row := 0; row < 3; row++ {
		out += fmt.Sprintf("%.6f %.6f %.6f\n",
			info.Intrinsics[row*3], info.Intrinsics[row*3+1], info.Intrinsics[row*3+2])
	}
	for i, d := range info.Distortion {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.6f", d)
	}
	out += "\n"
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
