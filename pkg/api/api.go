// Package api provides the public API for using the PHP obfuscator as a library.
//
// This package allows users to obfuscate PHP code programmatically using the
// same pipeline available in the command-line interface. The API provides
// methods for obfuscating PHP code strings, files, and directories.
//
// Basic usage example:
//
//	obf, err := api.NewObfuscator(api.Options{ConfigPath: "config.yaml"})
//	if err != nil {
//	    log.Fatalf("Failed to create obfuscator: %v", err)
//	}
//
//	result, err := obf.ObfuscateCode("<?php function f($x) { return $x; }")
//	if err != nil {
//	    log.Fatalf("Failed to obfuscate code: %v", err)
//	}
//
//	fmt.Println(result) // Prints obfuscated PHP code
package api

import (
	"fmt"

	"github.com/runstack/obfuscator/internal/config"
	"github.com/runstack/obfuscator/internal/obfuscator"
)

// Error kinds returned by the obfuscator. Use errors.As to tell them apart.
type (
	ConfigurationError = obfuscator.ConfigurationError
	ParseError         = obfuscator.ParseError
	IOError            = obfuscator.IOError
)

// Result is the outcome of obfuscating one source text.
type Result = obfuscator.Result

// PrintInfo prints formatted information to stdout, respecting the Testing flag.
// If Testing mode is active, no output will be generated.
// This function forwards to the internal config.PrintInfo function.
func PrintInfo(format string, args ...interface{}) {
	config.PrintInfo(format, args...)
}

// Obfuscator represents the main obfuscation engine that can be used to obfuscate PHP code.
// It is safe for concurrent use.
type Obfuscator struct {
	// Engine runs the level pipeline
	Engine *obfuscator.Engine
	// Config holds the configuration settings for obfuscation
	Config *config.Config
}

// Options represents configuration options for creating a new Obfuscator instance.
type Options struct {
	// ConfigPath is the path to a YAML configuration file
	// If empty, config.yaml in the working directory is used when present,
	// otherwise the defaults
	ConfigPath string

	// Silent suppresses informational messages during obfuscation
	Silent bool

	// ConfigOverrides overrides individual config keys, named as in the
	// config file (e.g. "level": 2). Applied after the file and environment.
	ConfigOverrides map[string]interface{}
}

// NewObfuscator creates a new Obfuscator instance using the provided options.
//
// Returns an error if the configuration cannot be loaded or describes a
// pipeline that cannot be built (a *ConfigurationError for an unavailable
// level or an unknown parser mode).
func NewObfuscator(options Options) (*Obfuscator, error) {
	cfg, err := config.LoadConfigWithOverrides(options.ConfigPath, options.ConfigOverrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if options.Silent {
		cfg.Silent = true
	}
	return NewObfuscatorFromConfig(cfg)
}

// NewObfuscatorFromConfig creates an Obfuscator from an already loaded configuration.
func NewObfuscatorFromConfig(cfg *config.Config) (*Obfuscator, error) {
	engine, err := obfuscator.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	if err := engine.Validate(); err != nil {
		return nil, err
	}
	return &Obfuscator{Engine: engine, Config: cfg}, nil
}

// ObfuscateCode obfuscates a string of PHP code and returns the obfuscated code.
// A missing open tag is added before parsing.
func (o *Obfuscator) ObfuscateCode(code string) (string, error) {
	return o.Engine.ObfuscateCode(code)
}

// Obfuscate is ObfuscateCode returning the full result, including the
// variable name mappings.
func (o *Obfuscator) Obfuscate(code string) (*Result, error) {
	return o.Engine.Process([]byte(code))
}

// ObfuscateFile obfuscates a PHP file and returns the obfuscated code.
func (o *Obfuscator) ObfuscateFile(filePath string) (string, error) {
	res, err := o.Engine.ProcessFile(filePath)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// ObfuscateFileToFile obfuscates a PHP file and writes the result to another
// file, creating the output directory if needed.
func (o *Obfuscator) ObfuscateFileToFile(inputPath, outputPath string) error {
	return o.Engine.ObfuscateFile(inputPath, outputPath)
}

// Level returns the configured obfuscation level.
func (o *Obfuscator) Level() int {
	return o.Config.Level
}

// MaxLevel returns the highest level available in this build.
func (o *Obfuscator) MaxLevel() int {
	return o.Engine.MaxLevel()
}
