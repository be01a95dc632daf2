package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DaemonConfig is the static device/sensor configuration read once at
// startup, separate from the hot-reloadable profile descriptor: this is
// the device-topology half of the on-disk configuration, the profile is
// the effect-stack half of it.
type DaemonConfig struct {
	Devices []DeviceConfig `yaml:"devices"`
	Sensors SensorsConfig  `yaml:"sensors"`
}

// DeviceConfig describes one HID device to bind on startup: VID/PID
// match, LED count, and report layout.
type DeviceConfig struct {
	Name      string `yaml:"name"`
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
	Interface int    `yaml:"interface"`
	Usage     uint16 `yaml:"usage"`
	UsagePage uint16 `yaml:"usage_page"`
	Rows      int    `yaml:"rows"`
	Columns   int    `yaml:"columns"`
	ReportID  byte   `yaml:"report_id"`
	EvdevPath string `yaml:"evdev_path"` // optional supplemental input source
}

// SensorsConfig enables and configures the auxiliary sensor providers
// beyond the always-on canonical set (cpu, mem, clock); each is optional
// since none of them are available in every deployment environment.
type SensorsConfig struct {
	Audio   *AudioConfig   `yaml:"audio"`
	GPU     *GPUConfig     `yaml:"gpu"`
	Weather *WeatherConfig `yaml:"weather"`
	Mail    *MailConfig    `yaml:"mail"`
}

type AudioConfig struct {
	Bands int `yaml:"bands"`
}

type GPUConfig struct {
	DeviceIndex int `yaml:"device_index"`
}

type WeatherConfig struct {
	APIKey   string        `yaml:"api_key"`
	Unit     string        `yaml:"unit"`
	Location string        `yaml:"location"`
	Interval time.Duration `yaml:"interval"`
}

type MailConfig struct {
	CredentialsPath string        `yaml:"credentials_path"`
	Label           string        `yaml:"label"`
	Interval        time.Duration `yaml:"interval"`
}

// loadDaemonConfig reads and decodes the device/sensor configuration file.
func loadDaemonConfig(path string) (DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DaemonConfig{}, fmt.Errorf("eruptiond: read config %s: %w", path, err)
	}
	var cfg DaemonConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DaemonConfig{}, fmt.Errorf("eruptiond: parse config %s: %w", path, err)
	}
	return cfg, nil
}
