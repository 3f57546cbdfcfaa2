/*
NAME
  variables.go

DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/google/uuid"

	"github.com/ausocean/dcp/codec/codecutil"
	"github.com/ausocean/dcp/codec/pcm"
	"github.com/ausocean/dcp/crypt"
)

// Config map Keys.
const (
	KeyEditRate       = "EditRate"
	KeyEncrypt        = "Encrypt"
	KeyEssenceType    = "EssenceType"
	KeyInputPaths     = "InputPaths"
	KeyKey            = "Key"
	KeyLabelSet       = "LabelSet"
	KeyLogging        = "logging"
	KeyLogPath        = "LogPath"
	KeyMixAtmos       = "MixAtmos"
	KeyOutputFormat   = "OutputFormat"
	KeyOutputPath     = "OutputPath"
	KeyPedantic       = "Pedantic"
	KeySuppress       = "Suppress"
	KeySyncChannel    = "SyncChannel"
	KeySyncUUID       = "SyncUUID"
	KeyTargetChannels = "TargetChannels"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultVerbosity      = logging.Info
	defaultLogPath        = "/var/log/dcp/dcpwrap.log"
	defaultLabelSet       = crypt.LabelSetSMPTE
	defaultTargetChannels = pcm.DefaultTargetChannels
	defaultOutputFormat   = OutputFile
	defaultOutputPath     = "out.dcp"
)

// defaultEditRate is used when no valid edit rate is given.
var defaultEditRate = codecutil.EditRate24

// Variables describes the variables that can be used for wrap control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name: KeyEditRate,
		Type: typeString,
		Update: func(c *Config, v string) {
			r, err := parseRational(v)
			if err != nil {
				c.Logger.Warning("invalid EditRate param", "value", v)
				return
			}
			c.EditRate = r
		},
		Validate: func(c *Config) {
			if c.EditRate.Numerator <= 0 || c.EditRate.Denominator <= 0 {
				c.LogInvalidField(KeyEditRate, defaultEditRate)
				c.EditRate = defaultEditRate
			}
		},
	},
	{
		Name:   KeyEncrypt,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Encrypt = parseBool(KeyEncrypt, v, c) },
	},
	{
		Name: KeyEssenceType,
		Type: "enum:jp2k,pcm,atmos,mpeg2,mpegts",
		Update: func(c *Config, v string) {
			v = strings.ToLower(v)
			if !codecutil.IsValid(v) {
				c.Logger.Warning("invalid EssenceType param", "value", v)
				return
			}
			c.EssenceType = v
		},
		Validate: func(c *Config) {
			switch {
			case c.EssenceType == codecutil.Unknown:
			case !codecutil.IsValid(c.EssenceType):
				c.LogInvalidField(KeyEssenceType, codecutil.Unknown)
				c.EssenceType = codecutil.Unknown
			case c.EssenceType == codecutil.Atmos:
				c.MixAtmos = true
			}
		},
	},
	{
		Name: KeyInputPaths,
		Type: typeString,
		Update: func(c *Config, v string) {
			c.InputPaths = nil
			for _, p := range strings.Split(v, ",") {
				p = strings.TrimSpace(p)
				if p != "" {
					c.InputPaths = append(c.InputPaths, p)
				}
			}
		},
	},
	{
		Name: KeyKey,
		Type: typeString,
		Update: func(c *Config, v string) {
			k, err := hex.DecodeString(strings.TrimSpace(v))
			if err != nil || len(k) != crypt.KeyLen {
				c.Logger.Warning("invalid Key param, want 32 hex digits")
				return
			}
			c.Key = k
		},
	},
	{
		Name: KeyLabelSet,
		Type: "enum:interop,smpte",
		Update: func(c *Config, v string) {
			ls, err := crypt.ParseLabelSet(v)
			if err != nil {
				c.Logger.Warning("invalid LabelSet param", "value", v)
				return
			}
			c.LabelSet = ls
		},
		Validate: func(c *Config) {
			switch c.LabelSet {
			case crypt.LabelSetInterop, crypt.LabelSetSMPTE:
			default:
				c.LogInvalidField(KeyLabelSet, defaultLabelSet)
				c.LabelSet = defaultLabelSet
			}
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyLogPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.LogPath = v },
		Validate: func(c *Config) {
			if c.LogPath == "" {
				c.LogInvalidField(KeyLogPath, defaultLogPath)
				c.LogPath = defaultLogPath
			}
		},
	},
	{
		Name:   KeyMixAtmos,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.MixAtmos = parseBool(KeyMixAtmos, v, c) },
	},
	{
		Name: KeyOutputFormat,
		Type: "enum:file,wav",
		Update: func(c *Config, v string) {
			c.OutputFormat = parseEnum(
				KeyOutputFormat,
				v,
				map[string]uint8{
					"file": OutputFile,
					"wav":  OutputWAV,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.OutputFormat {
			case OutputFile:
			case OutputWAV:
				if c.Encrypt {
					c.Logger.Warning("encryption not supported for WAV output, disabling")
					c.Encrypt = false
				}
			default:
				c.LogInvalidField(KeyOutputFormat, defaultOutputFormat)
				c.OutputFormat = defaultOutputFormat
			}
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
		Validate: func(c *Config) {
			if c.OutputPath == "" {
				c.LogInvalidField(KeyOutputPath, defaultOutputPath)
				c.OutputPath = defaultOutputPath
			}
		},
	},
	{
		Name:   KeyPedantic,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Pedantic = parseBool(KeyPedantic, v, c) },
	},
	{
		Name: KeySuppress,
		Type: typeBool,
		Update: func(c *Config, v string) {
			c.Suppress = parseBool(KeySuppress, v, c)
			if l, ok := c.Logger.(*logging.JSONLogger); ok {
				l.SetSuppress(c.Suppress)
			}
		},
	},
	{
		Name:   KeySyncChannel,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SyncChannel = parseUint(KeySyncChannel, v, c) },
	},
	{
		Name: KeySyncUUID,
		Type: typeString,
		Update: func(c *Config, v string) {
			id, err := uuid.Parse(v)
			if err != nil {
				c.Logger.Warning("invalid SyncUUID param", "value", v)
				return
			}
			c.SyncUUID = id
		},
		Validate: func(c *Config) {
			if c.MixAtmos && c.SyncUUID == uuid.Nil {
				id := uuid.New()
				c.LogInvalidField(KeySyncUUID, id.String())
				c.SyncUUID = id
			}
		},
	},
	{
		Name:   KeyTargetChannels,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.TargetChannels = parseUint(KeyTargetChannels, v, c) },
		Validate: func(c *Config) {
			c.TargetChannels = lessThanOrEqual(KeyTargetChannels, c.TargetChannels, 0, c, defaultTargetChannels)
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

// parseRational parses "n/d", or "n" meaning n/1.
func parseRational(v string) (codecutil.Rational, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(v), "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return codecutil.Rational{}, err
	}
	d := 1
	if ok {
		d, err = strconv.Atoi(den)
		if err != nil {
			return codecutil.Rational{}, err
		}
	}
	if n <= 0 || d <= 0 {
		return codecutil.Rational{}, fmt.Errorf("rational %s not positive", v)
	}
	return codecutil.Rational{Numerator: n, Denominator: d}, nil
}
