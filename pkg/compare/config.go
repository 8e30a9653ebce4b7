package compare

import "github.com/pkg/errors"

const (
	DefaultSourceLabel = "source"
	DefaultOtherLabel  = "other"
)

var (
	ErrKeyAttributeRequired = errors.New("key attribute is required")
	ErrNegativeBufferSize   = errors.New("other buffer size must not be negative")
)

// Config holds the settings of a comparison.
type Config struct {
	// KeyAttribute names the attribute both streams are sorted by.
	KeyAttribute string `yaml:"key_attribute" toml:"key_attribute" split_words:"true"`
	// ExcludeAttributes are never compared.
	ExcludeAttributes []string `yaml:"exclude_attributes" toml:"exclude_attributes" split_words:"true"`
	SourceLabel       string   `yaml:"source_label" toml:"source_label" split_words:"true"`
	OtherLabel        string   `yaml:"other_label" toml:"other_label" split_words:"true"`
	// OtherBufferSize is the buffer size of the other input channel, 0 for a rendezvous channel.
	OtherBufferSize int `yaml:"other_buffer_size" toml:"other_buffer_size" split_words:"true"`
}

// WithDefaults returns a copy of c with the empty labels set to their default value.
func (c Config) WithDefaults() Config {
	if c.SourceLabel == "" {
		c.SourceLabel = DefaultSourceLabel
	}

	if c.OtherLabel == "" {
		c.OtherLabel = DefaultOtherLabel
	}

	c.ExcludeAttributes = append([]string(nil), c.ExcludeAttributes...)

	return c
}

func (c Config) Validate() error {
	if c.KeyAttribute == "" {
		return ErrKeyAttributeRequired
	}

	if c.OtherBufferSize < 0 {
		return errors.Wrapf(ErrNegativeBufferSize, "got %d", c.OtherBufferSize)
	}

	return nil
}
