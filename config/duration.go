package config

import "time"

// Duration wraps time.Duration so it can be written as a plain string
// ("30s", "2m") in the TOML config file; BurntSushi/toml hands string
// values to any field implementing encoding.TextUnmarshaler.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
