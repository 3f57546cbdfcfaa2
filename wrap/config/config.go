/*
NAME
  config.go

DESCRIPTION
  config.go contains the configuration settings for an essence wrap job.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for an essence wrap
// job.
package config

import (
	"github.com/ausocean/utils/logging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ausocean/dcp/codec/codecutil"
	"github.com/ausocean/dcp/crypt"
)

// Enums to define outputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Outputs.
	OutputFile // Length prefixed frames, with integrity values when encrypting.
	OutputWAV  // PCM audio as a WAV file.
)

// Config provides parameters relevant to a wrap job. Default values for
// these fields are defined in variables.go.
type Config struct {
	// Logger holds an implementation of the Logger interface.
	// This must be set for the wrapper to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	LogPath  string // Path of the rolling log file written by the command.
	Suppress bool   // Holds logger suppression state.

	// InputPaths are the essence files. A single directory is expanded to its
	// non-hidden files in lexicographic order.
	InputPaths []string

	// EssenceType is one of the types defined in codecutil. If unset the type
	// is detected from the first input file.
	EssenceType string

	EditRate codecutil.Rational // Frames per second of the wrapped essence.

	// Pedantic requires every JPEG 2000 frame to have the coding parameters
	// of the first.
	Pedantic bool

	// Encrypt enables AES encryption of every frame with Key, and an integrity
	// value derived from Key according to LabelSet.
	Encrypt  bool
	Key      []byte
	LabelSet crypt.LabelSet

	// MixAtmos lays PCM input out in TargetChannels channels with a sync
	// signal carrying SyncUUID on SyncChannel.
	MixAtmos       bool
	SyncUUID       uuid.UUID
	TargetChannels uint
	SyncChannel    uint // 1-based. Zero selects the last channel.

	OutputPath   string // Destination file.
	OutputFormat uint8  // OutputFile or OutputWAV.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined. An error is returned for
// settings that cannot be defaulted.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}

	if len(c.InputPaths) == 0 {
		return errors.Wrap(codecutil.ErrConfig, "no input paths")
	}
	if c.Encrypt && len(c.Key) != crypt.KeyLen {
		return errors.Wrapf(codecutil.ErrConfig, "encryption key is %d bytes, want %d", len(c.Key), crypt.KeyLen)
	}
	if c.SyncChannel > c.TargetChannels {
		return errors.Wrapf(codecutil.ErrConfig, "sync channel %d beyond %d channels", c.SyncChannel, c.TargetChannels)
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
