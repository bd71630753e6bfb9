package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PolicyConfig holds the attendance and leave rules shared by every branch.
type PolicyConfig struct {
	Attendance AttendancePolicy `yaml:"attendance"`
	Leave      LeavePolicy      `yaml:"leave"`
}

type AttendancePolicy struct {
	MaxAccuracyMeters   float64  `yaml:"max_accuracy_meters"`
	MaxDistanceMeters   float64  `yaml:"max_distance_meters"`
	MaxPhotoSizeBytes   int64    `yaml:"max_photo_size_bytes"`
	AllowedContentTypes []string `yaml:"allowed_content_types"`
}

type LeavePolicy struct {
	EmergencyPerMonth int `yaml:"emergency_per_month"`
	PrivilegePerMonth int `yaml:"privilege_per_month"`
}

func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		Attendance: AttendancePolicy{
			MaxAccuracyMeters:   100,
			MaxDistanceMeters:   100,
			MaxPhotoSizeBytes:   5 << 20,
			AllowedContentTypes: []string{"image/jpeg", "image/jpg", "image/png"},
		},
		Leave: LeavePolicy{
			EmergencyPerMonth: 1,
			PrivilegePerMonth: 2,
		},
	}
}

// LoadPolicy reads a YAML policy file. Keys absent from the file keep their defaults.
func LoadPolicy(path string) (PolicyConfig, error) {
	policy := DefaultPolicy()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return policy, fmt.Errorf("failed to read policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse policy file: %w", err)
	}

	return policy, nil
}

func (p PolicyConfig) Validate() error {
	if p.Attendance.MaxAccuracyMeters <= 0 {
		return fmt.Errorf("attendance.max_accuracy_meters must be positive")
	}
	if p.Attendance.MaxDistanceMeters <= 0 {
		return fmt.Errorf("attendance.max_distance_meters must be positive")
	}
	if p.Attendance.MaxPhotoSizeBytes <= 0 {
		return fmt.Errorf("attendance.max_photo_size_bytes must be positive")
	}
	if len(p.Attendance.AllowedContentTypes) == 0 {
		return fmt.Errorf("attendance.allowed_content_types must not be empty")
	}
	if p.Leave.EmergencyPerMonth < 0 || p.Leave.PrivilegePerMonth < 0 {
		return fmt.Errorf("leave grants must not be negative")
	}
	return nil
}
