package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings tunes the synthesized urltest group and the port fallback. The
// zero-value fields of a partial file fall back to Default().
type Settings struct {
	// DefaultPort replaces a missing or falsy bean.port on conversion.
	DefaultPort int     `yaml:"default_port"`
	URLTest     URLTest `yaml:"urltest"`
}

type URLTest struct {
	URL         string `yaml:"url"`
	Interval    string `yaml:"interval"`
	Tolerance   int    `yaml:"tolerance"`
	IdleTimeout string `yaml:"idle_timeout"`

	InterruptExistConnections bool `yaml:"interrupt_exist_connections"`
}

func Default() Settings {
	return Settings{
		DefaultPort: 443,
		URLTest: URLTest{
			URL:         "https://www.gstatic.com/generate_204",
			Interval:    "3m",
			Tolerance:   50,
			IdleTimeout: "30m",
		},
	}
}

// Load reads a YAML settings file on top of Default(). An empty path returns
// the defaults untouched.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("读取设置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("设置文件不是合法 YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.DefaultPort < 0 || s.DefaultPort > 65535 {
		return fmt.Errorf("default_port 超出范围: %d", s.DefaultPort)
	}
	if s.URLTest.Tolerance < 0 {
		return fmt.Errorf("urltest.tolerance 不能为负: %d", s.URLTest.Tolerance)
	}
	return nil
}
