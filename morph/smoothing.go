package morph

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// SmoothingConfig holds Kalman filter props used by SmoothChannel.
type SmoothingConfig struct {
	// Time between two consecutive frames
	Dt float64
	// Standard deviation of acceleration (process noise)
	StdDevA float64
	// Standard deviation of hand placement (measurement noise), in pixels
	StdDevM float64
}

// DefaultSmoothingConfig returns props which remove a couple of pixels of placement jitter
func DefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		Dt:      1.0,
		StdDevA: 0.5,
		StdDevM: 2.0,
	}
}

// Validate checks every prop is positive
func (cfg SmoothingConfig) Validate() error {
	if cfg.Dt <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "dt must be positive, got %v", cfg.Dt)
	}
	if cfg.StdDevA <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "acceleration deviation must be positive, got %v", cfg.StdDevA)
	}
	if cfg.StdDevM <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "measurement deviation must be positive, got %v", cfg.StdDevM)
	}
	return nil
}

// SmoothChannel runs a 2-D Kalman filter over left and right trajectories of the channel
// (independently, in frame order) and replaces keypoint positions with the filtered state.
// Frames are not changed. On error the channel is left untouched.
func (anim *Animation) SmoothChannel(channel int, cfg SmoothingConfig) error {
	if err := validChannel(channel, len(anim.channels)); err != nil {
		return errors.Wrap(err, "Can't smooth channel")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "Can't smooth channel")
	}
	keypoints := anim.channels[channel]
	lefts := make([]Point, len(keypoints))
	rights := make([]Point, len(keypoints))
	for i, keypoint := range keypoints {
		lefts[i] = keypoint.Left
		rights[i] = keypoint.Right
	}
	smoothedLefts, err := smoothTrack(keypoints, lefts, cfg)
	if err != nil {
		return errors.Wrapf(err, "Can't smooth left track of channel %d", channel)
	}
	smoothedRights, err := smoothTrack(keypoints, rights, cfg)
	if err != nil {
		return errors.Wrapf(err, "Can't smooth right track of channel %d", channel)
	}
	for i := range keypoints {
		keypoints[i].Left = smoothedLefts[i]
		keypoints[i].Right = smoothedRights[i]
	}
	return nil
}

// Long gaps stop adding uncertainty after this many prediction steps.
const maxPredictionSteps = 256

// smoothTrack filters track (one point per keypoint). Frame gaps are covered by one
// prediction step per frame so that sparse keyframes get proportionally less trust.
func smoothTrack(keypoints []Keypoint, track []Point, cfg SmoothingConfig) ([]Point, error) {
	smoothed := make([]Point, len(track))
	if len(track) == 0 {
		return smoothed, nil
	}
	/* Kalman filter props */
	ux := 0.0
	uy := 0.0
	kf := kalman_filter.NewKalman2D(cfg.Dt, ux, uy, cfg.StdDevA, cfg.StdDevM, cfg.StdDevM, kalman_filter.WithState2D(float64(track[0].X), float64(track[0].Y)))
	smoothed[0] = track[0]
	for i := 1; i < len(track); i++ {
		gap := minInt(int(keypoints[i].Frame-keypoints[i-1].Frame), maxPredictionSteps)
		for step := 0; step < gap; step++ {
			kf.Predict()
		}
		err := kf.Update(float64(track[i].X), float64(track[i].Y))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't update filter at frame %d", keypoints[i].Frame)
		}
		stateX, stateY := kf.GetState()
		smoothed[i] = Point{X: float32(stateX), Y: float32(stateY)}
	}
	return smoothed, nil
}
