package config

import "time"

// CLIConfig is the configuration for seqlink-cli.
type CLIConfig struct {
	// Server is the seqlink-server address.
	Server string `koanf:"server" yaml:"server"`

	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty"`

	// Output is the default output format: text, json or yaml.
	Output string `koanf:"output" yaml:"output"`

	// Timeout bounds each request.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`

	// Cipher is the AEAD used for frames this client sends.
	Cipher string `koanf:"cipher" yaml:"cipher"`

	// Compress enables LZ4 compression of outgoing frames.
	Compress bool `koanf:"compress" yaml:"compress"`

	// HistoryFile stores chat input history. Empty disables it.
	HistoryFile string `koanf:"history_file" yaml:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:      "http://localhost:5380",
		Output:      "text",
		Timeout:     30 * time.Second,
		Cipher:      "auto",
		HistoryFile: defaultHistoryPath(),
	}
}
