package converter

import (
	"os"

	"gopkg.in/yaml.v2"
)

// VMDConfig is an optional YAML preset overriding the retarget defaults.
type VMDConfig struct {
	FPS          float64 `yaml:"fps"`
	Scale        float64 `yaml:"scale"`
	HeightOffset float64 `yaml:"heightOffset"`
	ModelName    string  `yaml:"modelName"`

	BoneMappings []*VMDBoneMapping `yaml:"boneMappings"`
}

type VMDBoneMapping struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

func LoadVMDConfig(path string) (*VMDConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseVMDConfig(data)
}

func ParseVMDConfig(data []byte) (*VMDConfig, error) {
	var conf VMDConfig
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// ApplyTo merges the preset into options, leaving unset fields alone.
func (c *VMDConfig) ApplyTo(options *FBXToVMDOption) {
	if c.FPS != 0 {
		options.FPS = c.FPS
	}
	if c.ModelName != "" {
		options.ModelName = c.ModelName
	}
	if options.Retarget == nil {
		options.Retarget = &RetargetOption{}
	}
	if c.Scale != 0 {
		options.Retarget.Scale = c.Scale
	}
	if c.HeightOffset != 0 {
		options.Retarget.HeightOffset = c.HeightOffset
	}
	if len(c.BoneMappings) > 0 {
		if options.Retarget.ExtraBoneNames == nil {
			options.Retarget.ExtraBoneNames = map[string]string{}
		}
		for _, m := range c.BoneMappings {
			options.Retarget.ExtraBoneNames[m.Source] = m.Target
		}
	}
}
