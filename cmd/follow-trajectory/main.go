// Command follow-trajectory drives the simulated camera through a CSV
// trajectory and writes the captured image, pose, and calibration data for
// every pose it reaches.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	capture "github.com/kylerobots/ground-texture-sim"
	"github.com/kylerobots/ground-texture-sim/logging"
	"github.com/kylerobots/ground-texture-sim/transport"
	"github.com/kylerobots/ground-texture-sim/writer"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := defaultOptions()
	var configPath string

	cmd := &cobra.Command{
		Use:           "follow-trajectory <trajectory.csv>",
		Short:         "Capture ground texture data along a camera trajectory",
		Long: `follow-trajectory moves the simulated camera through each pose of a CSV
trajectory. At every pose it waits for the simulation to settle, then stores
the camera image, the reported pose, and the camera calibration.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// File values first, then flags on top.
			if configPath != "" {
				if err := applyConfigFile(configPath, &opts); err != nil {
					return err
				}
			}
			if err := applyFlagOverrides(cmd, &opts); err != nil {
				return err
			}
			return run(args[0], opts)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	cmd.Flags().Float64("height", opts.params.CameraHeight, "camera height above the ground in meters")
	cmd.Flags().String("camera-topic", opts.params.CameraInfoStream, "stream publishing camera parameters")
	cmd.Flags().String("image-topic", opts.params.ImageStream, "stream publishing camera images")
	cmd.Flags().String("pose-topic", opts.params.PoseStream, "stream publishing model poses")
	cmd.Flags().String("move-service", opts.params.MoveService, "service that moves the camera")
	cmd.Flags().StringP("model", "m", opts.params.ModelName, "camera model name in the simulation")
	cmd.Flags().StringP("output", "o", opts.outputDir, "directory for captured data")
	cmd.Flags().String("bridge", opts.bridgeURL, "websocket URL of the simulator bridge")
	cmd.Flags().String("log-level", opts.logLevel, "log level (trace, debug, info, warn, error)")
	return cmd
}

func applyFlagOverrides(cmd *cobra.Command, opts *options) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("height") {
		opts.params.CameraHeight, err = flags.GetFloat64("height")
		if err != nil {
			return err
		}
	}
	if flags.Changed("camera-topic") {
		opts.params.CameraInfoStream, _ = flags.GetString("camera-topic")
	}
	if flags.Changed("image-topic") {
		opts.params.ImageStream, _ = flags.GetString("image-topic")
	}
	if flags.Changed("pose-topic") {
		opts.params.PoseStream, _ = flags.GetString("pose-topic")
	}
	if flags.Changed("move-service") {
		opts.params.MoveService, _ = flags.GetString("move-service")
	}
	if flags.Changed("model") {
		opts.params.ModelName, _ = flags.GetString("model")
	}
	if flags.Changed("output") {
		opts.outputDir, _ = flags.GetString("output")
	}
	if flags.Changed("bridge") {
		opts.bridgeURL, _ = flags.GetString("bridge")
	}
	if flags.Changed("log-level") {
		opts.logLevel, _ = flags.GetString("log-level")
	}
	return nil
}

func run(trajectoryPath string, opts options) error {
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log := logging.New("follow-trajectory", level)

	file, err := os.Open(trajectoryPath)
	if err != nil {
		return fmt.Errorf("open trajectory: %w", err)
	}
	trajectory, err := capture.ParseTrajectory(file, log)
	file.Close()
	if err != nil {
		return err
	}
	if len(trajectory) == 0 {
		return fmt.Errorf("trajectory %s contains no poses", trajectoryPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bridge, err := transport.Dial(opts.bridgeURL, log)
	if err != nil {
		return err
	}
	defer bridge.Close()

	follower, err := capture.NewFollower(opts.params, bridge, bridge, log)
	if err != nil {
		return err
	}
	sink, err := writer.New(opts.outputDir, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("poses", len(trajectory)).
		Str("output", sink.Dir()).
		Msg("starting trajectory capture")
	if err := follower.CaptureTrajectory(ctx, trajectory, sink); err != nil {
		return fmt.Errorf("capture incomplete, results may be partial: %w", err)
	}
	log.Info().Msg("trajectory captured")
	return nil
}
