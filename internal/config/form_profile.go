package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed form_profile.yaml
var defaultFormProfile []byte

type HeaderLine struct {
	Text string  `yaml:"text"`
	Size float64 `yaml:"size"`
	Bold bool    `yaml:"bold"`
}

type Signatory struct {
	Caption    string   `yaml:"caption"`
	Subcaption string   `yaml:"subcaption"`
	Name       string   `yaml:"name"`
	Lines      []string `yaml:"lines"`
}

// Logos names the header images as data URLs or file paths.
type Logos struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// FormProfile holds the office-specific text of the trip ticket form.
type FormProfile struct {
	Header             []HeaderLine `yaml:"header"`
	Title              string       `yaml:"title"`
	Recommending       Signatory    `yaml:"recommending"`
	Approving          Signatory    `yaml:"approving"`
	DefaultDriver      string       `yaml:"default_driver"`
	PassengerSignatory string       `yaml:"passenger_signatory"`
	Logos              Logos        `yaml:"logos"`
}

// DefaultFormProfile returns the embedded Region II profile.
func DefaultFormProfile() FormProfile {
	p, err := parseFormProfile(defaultFormProfile)
	if err != nil {
		panic(fmt.Sprintf("embedded form profile: %v", err))
	}
	return p
}

// LoadFormProfile reads a YAML profile; an empty path yields the embedded default.
// Fields missing from the file keep their default values.
func LoadFormProfile(path string) (FormProfile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultFormProfile(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return FormProfile{}, fmt.Errorf("read form profile: %w", err)
	}
	p := DefaultFormProfile()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return FormProfile{}, fmt.Errorf("parse form profile %s: %w", path, err)
	}
	return p, nil
}

func parseFormProfile(raw []byte) (FormProfile, error) {
	var p FormProfile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return FormProfile{}, err
	}
	return p, nil
}
