package state

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var namePattern, _ = regexp.Compile("^[0-9A-Za-z._-]+$")

func PathValidator(s string) error {
	_, err := os.Stat(path.Dir(s))
	if err != nil {
		return err
	}
	_, err = filepath.Abs(s)
	return err
}

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	if strings.EqualFold(s, EngineSender) {
		return fmt.Errorf("%s is reserved", s)
	}
	return nil
}

func TopologyConfigValidator(cfg *TopologyCfg) error {
	if len(cfg.Devices) == 0 {
		return fmt.Errorf("topology must define at least one device")
	}
	seen := make(map[string]DeviceId)
	for _, dev := range cfg.Devices {
		err := NameValidator(string(dev.Id))
		if err != nil {
			return err
		}
		key := strings.ToLower(string(dev.Id))
		if other, ok := seen[key]; ok {
			return fmt.Errorf("duplicate device: %s and %s differ only by case", other, dev.Id)
		}
		seen[key] = dev.Id
		for _, itf := range dev.Interfaces {
			if itf.Name == "" {
				return fmt.Errorf("device %s has an interface without a name", dev.Id)
			}
			if itf.Ip.IsValid() != itf.Mask.IsValid() {
				return fmt.Errorf("device %s interface %s must set both ip and mask", dev.Id, itf.Name)
			}
		}
	}
	return nil
}

func SimConfigValidator(cfg *SimCfg) error {
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", cfg.TickInterval)
	}
	if cfg.HelloInterval <= 0 {
		return fmt.Errorf("hello interval must be positive, got %s", cfg.HelloInterval)
	}
	if cfg.NeighbourTimeout <= cfg.HelloInterval {
		return fmt.Errorf("neighbour timeout %s must be longer than the hello interval %s", cfg.NeighbourTimeout, cfg.HelloInterval)
	}
	if cfg.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %s", cfg.SettleDelay)
	}
	if cfg.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", cfg.ProbeTimeout)
	}
	return nil
}
