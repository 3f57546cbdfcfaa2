/*
NAME
  main.go

DESCRIPTION
  dcpwrap reads JPEG 2000, PCM or MPEG-2 essence, optionally encrypting
  each frame, and writes the frames to a record file or a WAV file. Jobs are
  described by TOML config files and command line flags, and run in
  parallel.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// dcpwrap is a command line front end to the wrap package.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/dcp/wrap"
	"github.com/ausocean/dcp/wrap/config"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.3.0"

// Logging configuration.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
)

// Misc constants.
const (
	profilePath = "dcpwrap.prof"
	pkg         = "dcpwrap: "
)

// This is set to true if the 'profile' build tag is provided on build.
var canProfile = false

// configFiles collects repeated -config flags.
type configFiles []string

func (c *configFiles) String() string { return fmt.Sprint(*c) }

func (c *configFiles) Set(s string) error {
	*c = append(*c, s)
	return nil
}

func main() {
	var files configFiles
	flag.Var(&files, "config", "TOML job file; may be repeated to run jobs in parallel")
	showVersion := flag.Bool("version", false, "show version")

	// Flags named after config variables override every job file.
	flagVars := map[string]*string{
		config.KeyInputPaths:     flag.String("in", "", "comma separated input files or a directory"),
		config.KeyOutputPath:     flag.String("out", "", "output path"),
		config.KeyOutputFormat:   flag.String("format", "", "output format: File or WAV"),
		config.KeyEssenceType:    flag.String("type", "", "essence type: jp2k, pcm, atmos, mpeg2 or mpegts; detected if unset"),
		config.KeyEditRate:       flag.String("rate", "", "edit rate, e.g. 24 or 24000/1001"),
		config.KeyPedantic:       flag.String("pedantic", "", "require identical coding for every codestream (true/false)"),
		config.KeyEncrypt:        flag.String("encrypt", "", "encrypt frames (true/false)"),
		config.KeyKey:            flag.String("key", "", "encryption key as 32 hex digits"),
		config.KeyLabelSet:       flag.String("labelset", "", "integrity label set: interop or smpte"),
		config.KeyMixAtmos:       flag.String("atmos", "", "mix PCM inputs into an Atmos channel layout (true/false)"),
		config.KeyTargetChannels: flag.String("channels", "", "Atmos output channel count"),
		config.KeySyncChannel:    flag.String("sync", "", "1 based Atmos sync channel"),
		config.KeySyncUUID:       flag.String("uuid", "", "Atmos sync track UUID"),
		config.KeyLogging:        flag.String("loglevel", "", "log level: Debug, Info, Warning, Error or Fatal"),
		config.KeyLogPath:        flag.String("logpath", "", "log file path"),
		config.KeySuppress:       flag.String("suppress", "", "suppress repeated log messages (true/false)"),
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	overrides := make(map[string]string)
	for k, v := range flagVars {
		if *v != "" {
			overrides[k] = *v
		}
	}

	log := newLogger(overrides)
	log.Info("starting dcpwrap", "version", version)

	// If dcpwrap has been built with the profile tag, then we'll start a CPU profile.
	if canProfile {
		profile(log)
		defer pprof.StopCPUProfile()
		log.Info("profiling started")
	}

	jobs, err := loadJobs(files, overrides)
	if err != nil {
		log.Fatal(pkg+"could not load jobs", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i, vars := range jobs {
		g.Go(func() error {
			err := runJob(ctx, log, vars)
			if err != nil {
				log.Error(pkg+"job failed", "job", i, "error", err.Error())
			}
			return err
		})
	}
	err = g.Wait()
	if err != nil {
		pprof.StopCPUProfile()
		os.Exit(1)
	}
	log.Info("all jobs complete", "jobs", len(jobs))
}

// newLogger creates the logger shared by all jobs from the logging flags,
// writing to stderr and a rotated log file.
func newLogger(overrides map[string]string) logging.Logger {
	// The logging variables are parsed with a stderr logger so that bad
	// values can be reported.
	c := config.Config{Logger: logging.New(logging.Info, os.Stderr, false)}
	c.Update(overrides)
	for _, v := range config.Variables {
		switch v.Name {
		case config.KeyLogging, config.KeyLogPath:
			v.Validate(&c)
		}
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   c.LogPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	return logging.New(c.LogLevel, io.MultiWriter(os.Stderr, fileLog), c.Suppress)
}

// loadJobs returns the variables of each job. Every job file yields a job
// with the flag overrides applied on top. Without job files the flags alone
// describe a single job.
func loadJobs(files []string, overrides map[string]string) ([]map[string]string, error) {
	if len(files) == 0 {
		return []map[string]string{overrides}, nil
	}
	jobs := make([]map[string]string, 0, len(files))
	for _, f := range files {
		vars, err := config.LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		for k, v := range overrides {
			vars[k] = v
		}
		jobs = append(jobs, vars)
	}
	return jobs, nil
}

// runJob wraps the essence of a single job.
func runJob(ctx context.Context, l logging.Logger, vars map[string]string) error {
	c := config.Config{Logger: l}
	c.Update(vars)

	w, err := wrap.New(c)
	if err != nil {
		return err
	}
	defer w.Close()

	out, err := w.NewOutput()
	if err != nil {
		return err
	}
	err = w.Run(ctx, out)
	if err != nil {
		out.Close()
		return err
	}
	err = out.Close()
	if err != nil {
		return err
	}
	l.Info("wrapped essence", "essence", w.Essence(), "frames", w.Frames(), "output", c.OutputPath)
	return nil
}

// profile starts a CPU profile written to profilePath.
func profile(l logging.Logger) {
	f, err := os.Create(profilePath)
	if err != nil {
		l.Fatal(pkg+"could not create CPU profile", "error", err.Error())
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		l.Fatal(pkg+"could not start CPU profile", "error", err.Error())
	}
}
