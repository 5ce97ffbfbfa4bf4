package structlog

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. STRUCTLOG_LEVEL.
	EnvPrefix = "STRUCTLOG"

	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// FileConfig is the on-disk form of Config. Output names a stream
// (stdout, stderr) or a file path.
//
// Keys of GlobalFields are case-insensitive in the file and come back
// lower-cased.
type FileConfig struct {
	Level        string         `mapstructure:"level"`
	Output       string         `mapstructure:"output" validate:"required"`
	GlobalFields map[string]any `mapstructure:"global_fields" validate:"omitempty,dive,keys,required,endkeys"`
}

// LoadConfig reads path (yaml, json or toml, chosen by extension) and
// applies STRUCTLOG_* environment overrides. An empty path reads only the
// defaults and the environment.
func LoadConfig(path string) (FileConfig, error) {
	const op errors.Op = "structlog.LoadConfig"

	v := viper.New()
	v.SetDefault("level", InfoLevel.String())
	v.SetDefault("output", OutputStdout)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != emptyString {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return FileConfig{}, errors.New(op).Err(err).Msg(errMsgLoadConfig)
		}
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, errors.New(op).Err(err).Msg(errMsgLoadConfig)
	}
	if err := validateConfig(op, &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// OpenFactory resolves fc.Output and builds a factory. A file output is
// opened for appending, its directory created if needed, and closed by
// Factory.Close.
func OpenFactory(fc FileConfig) (*Factory, error) {
	const op errors.Op = "structlog.OpenFactory"
	if err := validateConfig(op, &fc); err != nil {
		return nil, err
	}

	out, closer, err := openOutput(fc.Output)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgOpenOutput)
	}

	f, err := NewFactory(Config{
		DefaultLevel: fc.Level,
		GlobalFields: fc.GlobalFields,
		Output:       out,
	})
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	f.closer = closer
	return f, nil
}

func openOutput(target string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(target) {
	case OutputStdout:
		return os.Stdout, nil, nil
	case OutputStderr:
		return os.Stderr, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}
