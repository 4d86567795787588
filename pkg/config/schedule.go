package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

// scheduleFile is the on-disk layout of the daily work schedule.
//
//	timezone: Asia/Jakarta
//	full_window: {name: day, start: "09:00", end: "18:00"}
//	windows:
//	  - {name: morning, start: "09:00", end: "13:00"}
//	  - {name: afternoon, start: "14:00", end: "18:00"}
type scheduleFile struct {
	Timezone   string                    `yaml:"timezone"`
	FullWindow *availability.WorkWindow  `yaml:"full_window"`
	Windows    []availability.WorkWindow `yaml:"windows"`
}

// LoadSchedule builds the availability schedule. Without a file the default morning/afternoon split
// is used; a timezone in the file overrides cfg.Timezone.
func LoadSchedule(cfg AvailabilityConfig) (availability.Schedule, error) {
	loc, err := LoadLocation(cfg.Timezone)
	if err != nil {
		return availability.Schedule{}, err
	}
	schedule := availability.DefaultSchedule(loc)
	if cfg.ScheduleFile == "" {
		return schedule, nil
	}

	raw, err := os.ReadFile(cfg.ScheduleFile)
	if err != nil {
		return availability.Schedule{}, fmt.Errorf("read schedule file: %w", err)
	}
	var file scheduleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return availability.Schedule{}, fmt.Errorf("parse schedule file: %w", err)
	}
	if file.Timezone != "" {
		if schedule.Location, err = LoadLocation(file.Timezone); err != nil {
			return availability.Schedule{}, err
		}
	}
	if len(file.Windows) > 0 {
		schedule.Windows = file.Windows
	}
	if file.FullWindow != nil {
		schedule.FullWindow = *file.FullWindow
	}
	if err := schedule.Validate(); err != nil {
		return availability.Schedule{}, fmt.Errorf("invalid schedule file: %w", err)
	}
	return schedule, nil
}

// LoadLocation resolves an IANA zone name; empty and "Local" mean the process zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
