package main

import (
	"os"

	"github.com/JosephCatrambone/morph-tool/morph"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// keypointRecord is one keyframe of a channel as stored in a project file
type keypointRecord struct {
	Frame uint32    `yaml:"frame"`
	Left  []float32 `yaml:"left,flow"`
	Right []float32 `yaml:"right,flow"`
}

// Project is the on-disk description of a morph: solver settings, image sources and channels.
type Project struct {
	Alpha       *float32           `yaml:"alpha"`
	Direction   string             `yaml:"direction,omitempty"`
	LeftSource  string             `yaml:"left_source,omitempty"`
	RightSource string             `yaml:"right_source,omitempty"`
	Channels    [][]keypointRecord `yaml:"channels"`
}

// LoadProject reads and validates project file
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read project %s", path)
	}
	project, err := ParseProject(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load project %s", path)
	}
	return project, nil
}

// ParseProject decodes and validates YAML project
func ParseProject(data []byte) (*Project, error) {
	project := &Project{}
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, errors.Wrap(err, "Can't decode project")
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	return project, nil
}

// Validate checks that the project can be turned into an animation and solved
func (p *Project) Validate() error {
	if p.Alpha == nil {
		return errors.Wrap(morph.ErrInvalidConfig, "alpha must be given explicitly")
	}
	if *p.Alpha < 0 {
		return errors.Wrapf(morph.ErrInvalidConfig, "alpha must not be negative, got %v", *p.Alpha)
	}
	if _, err := p.direction(); err != nil {
		return err
	}
	for i, channel := range p.Channels {
		if len(channel) == 0 {
			return errors.Wrapf(morph.ErrInvalidConfig, "channel %d has no keyframes", i)
		}
		for _, record := range channel {
			if len(record.Left) != 2 || len(record.Right) != 2 {
				return errors.Wrapf(morph.ErrShapeMismatch, "channel %d frame %d: points need exactly two coordinates", i, record.Frame)
			}
		}
	}
	return nil
}

func (p *Project) direction() (morph.Direction, error) {
	if p.Direction == "" {
		return morph.LeftToRight, nil
	}
	return morph.ParseDirection(p.Direction)
}

// ToAnimation builds the keyframe store. Records repeating a frame overwrite earlier ones.
func (p *Project) ToAnimation() (*morph.Animation, error) {
	anim := morph.NewAnimation()
	for i, channel := range p.Channels {
		target := morph.NewChannel
		for _, record := range channel {
			left := morph.NewPoint(record.Left[0], record.Left[1])
			right := morph.NewPoint(record.Right[0], record.Right[1])
			idx, err := anim.SetPoint(left, right, record.Frame, target)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't add channel %d frame %d", i, record.Frame)
			}
			target = idx
		}
	}
	return anim, nil
}

// SetChannels replaces project channels with the content of anim
func (p *Project) SetChannels(anim *morph.Animation) error {
	channels := make([][]keypointRecord, 0, anim.NumChannels())
	for i := 0; i < anim.NumChannels(); i++ {
		keypoints, err := anim.Keypoints(i)
		if err != nil {
			return err
		}
		records := make([]keypointRecord, len(keypoints))
		for j, keypoint := range keypoints {
			records[j] = keypointRecord{
				Frame: keypoint.Frame,
				Left:  []float32{keypoint.Left.X, keypoint.Left.Y},
				Right: []float32{keypoint.Right.X, keypoint.Right.Y},
			}
		}
		channels = append(channels, records)
	}
	p.Channels = channels
	return nil
}

// Save writes project as YAML
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "Can't encode project")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "Can't write project %s", path)
	}
	return nil
}
