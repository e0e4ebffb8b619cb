package machine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"m209/internal/lugrules"
	"m209/internal/variant"
)

// KeyFile is the YAML form of a key setting.
type KeyFile struct {
	Version   variant.Version `yaml:"version"`
	Indicator string          `yaml:"indicator"`
	Slide     int             `yaml:"slide"`
	Pins      []string        `yaml:"pins"`
	Lugs      string          `yaml:"lugs"`
}

// ParseKeyFile decodes a YAML key file.
func ParseKeyFile(data []byte) (*KeyFile, error) {
	var f KeyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	return &f, nil
}

// LoadKeyFile reads a YAML key file from path.
func LoadKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return ParseKeyFile(data)
}

// Marshal encodes the key file as YAML.
func (f *KeyFile) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteKeyFile writes f to path as YAML.
func WriteKeyFile(path string, f *KeyFile) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write key file %s: %w", path, err)
	}
	return nil
}

// KeyFile captures the key's setting.
func (k *Key) KeyFile() KeyFile {
	tc := k.lugs.typeCount
	return KeyFile{
		Version:   k.Constraints().Version,
		Indicator: FormatIndicator(&k.pins),
		Slide:     k.slide,
		Pins:      FormatPins(&k.pins),
		Lugs:      FormatLugs(&tc),
	}
}

// Apply validates f against the key's rules and installs it. On error the
// key is left unchanged.
func (k *Key) Apply(f *KeyFile) error {
	if f.Version != "" && f.Version != k.Constraints().Version {
		return fmt.Errorf("key file is for version %s, key is %s", f.Version, k.Constraints().Version)
	}
	indicator := [variant.Wheels]int{}
	if f.Indicator != "" {
		var err error
		if indicator, err = ParseIndicator(f.Indicator); err != nil {
			return err
		}
	}
	pins, err := ParsePins(f.Pins, indicator)
	if err != nil {
		return err
	}
	tc, err := ParseLugs(f.Lugs)
	if err != nil {
		return err
	}
	if err := CheckLugs(k.rules, &tc); err != nil {
		return err
	}
	if f.Slide < 0 || f.Slide >= variant.Letters {
		return fmt.Errorf("%w: %d", ErrSlide, f.Slide)
	}
	k.pins = pins
	k.lugs = NewLugs(tc)
	k.slide = f.Slide
	k.valid = false
	return nil
}

// NewKeyFromFile builds rules for the file's version and a key holding its
// setting, bound to ciphertext and crib.
func NewKeyFromFile(f *KeyFile, published *lugrules.Catalog, ciphertext, crib string) (*Key, error) {
	r, err := rulesFor(f, published)
	if err != nil {
		return nil, err
	}
	k, err := NewKey(r, ciphertext, crib)
	if err != nil {
		return nil, err
	}
	if err := k.Apply(f); err != nil {
		return nil, err
	}
	return k, nil
}

// NewSettingFromFile is NewKeyFromFile without a ciphertext.
func NewSettingFromFile(f *KeyFile, published *lugrules.Catalog) (*Key, error) {
	r, err := rulesFor(f, published)
	if err != nil {
		return nil, err
	}
	k := NewSetting(r)
	if err := k.Apply(f); err != nil {
		return nil, err
	}
	return k, nil
}

func rulesFor(f *KeyFile, published *lugrules.Catalog) (*lugrules.Rules, error) {
	c, err := variant.For(f.Version)
	if err != nil {
		return nil, err
	}
	return lugrules.New(c, published)
}
