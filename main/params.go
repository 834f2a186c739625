// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
)

const (
	envPrefix = "snapshotvm"

	versionKey           = "version"
	configFileKey        = "config-file"
	httpHostKey          = "http-host"
	httpPortKey          = "http-port"
	logLevelKey          = "log-level"
	logFormatKey         = "log-format"
	moduleStoreKey       = "module-store"
	moduleStorePathKey   = "module-store-path"
	engineEndpointKey    = "engine-endpoint"
	networkPassphraseKey = "network-passphrase"
	maxArgsKey           = "max-args"
	defaultCPUInsnsKey   = "default-cpu-insns"
	defaultMemBytesKey   = "default-mem-bytes"
	specCacheSizeKey     = "spec-cache-size"
	readTimeoutKey       = "read-timeout"
	writeTimeoutKey      = "write-timeout"
)

const (
	memoryStore  = "memory"
	leveldbStore = "leveldb"
	sqliteStore  = "sqlite"
)

type config struct {
	HTTPHost          string
	HTTPPort          uint16
	LogLevel          string
	LogFormat         string
	ModuleStore       string
	ModuleStorePath   string
	EngineEndpoint    string
	NetworkPassphrase string
	MaxArgs           int
	DefaultCPUInsns   uint64
	DefaultMemBytes   uint64
	SpecCacheSize     int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("snapshotvm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.String(configFileKey, "", "Path to a config file")
	fs.String(httpHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(httpPortKey, 9650, "Port of the HTTP server")
	fs.String(logLevelKey, "info", "Log level (trace, debug, info, warn, error, crit)")
	fs.String(logFormatKey, "terminal", "Log format (terminal, json)")
	fs.String(moduleStoreKey, memoryStore, "Module store backend (memory, leveldb, sqlite)")
	fs.String(moduleStorePathKey, "", "Path of the module store for the leveldb and sqlite backends")
	fs.String(engineEndpointKey, "", "URI of the contract execution engine")
	fs.String(networkPassphraseKey, ledger.DefaultPassphrase, "Network passphrase used when a request names none")
	fs.Int(maxArgsKey, invoke.DefaultMaxArgs, "Maximum number of arguments of a call")
	fs.Uint64(defaultCPUInsnsKey, invoke.DefaultCPUInstructions, "CPU instruction budget of a call that sets none")
	fs.Uint64(defaultMemBytesKey, invoke.DefaultMemoryBytes, "Memory budget of a call that sets none")
	fs.Int(specCacheSizeKey, invoke.DefaultSpecCacheSize, "Number of parsed contract interfaces to cache")
	fs.Duration(readTimeoutKey, 30*time.Second, "HTTP read timeout")
	fs.Duration(writeTimeoutKey, 30*time.Second, "HTTP write timeout")

	return fs
}

// getViper returns the viper environment for the binary
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	if path := v.GetString(configFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file: %w", err)
		}
	}
	return v, nil
}

func parseConfig(v *viper.Viper) (config, error) {
	c := config{
		HTTPHost:          v.GetString(httpHostKey),
		HTTPPort:          uint16(v.GetUint(httpPortKey)),
		LogLevel:          v.GetString(logLevelKey),
		LogFormat:         v.GetString(logFormatKey),
		ModuleStore:       v.GetString(moduleStoreKey),
		ModuleStorePath:   v.GetString(moduleStorePathKey),
		EngineEndpoint:    v.GetString(engineEndpointKey),
		NetworkPassphrase: v.GetString(networkPassphraseKey),
		MaxArgs:           v.GetInt(maxArgsKey),
		DefaultCPUInsns:   v.GetUint64(defaultCPUInsnsKey),
		DefaultMemBytes:   v.GetUint64(defaultMemBytesKey),
		SpecCacheSize:     v.GetInt(specCacheSizeKey),
		ReadTimeout:       v.GetDuration(readTimeoutKey),
		WriteTimeout:      v.GetDuration(writeTimeoutKey),
	}

	switch c.ModuleStore {
	case memoryStore:
	case leveldbStore, sqliteStore:
		if c.ModuleStorePath == "" {
			return c, fmt.Errorf("%s requires --%s", c.ModuleStore, moduleStorePathKey)
		}
	default:
		return c, fmt.Errorf("unknown module store %q", c.ModuleStore)
	}
	if c.EngineEndpoint == "" {
		return c, fmt.Errorf("--%s is required", engineEndpointKey)
	}
	if c.LogFormat != "terminal" && c.LogFormat != "json" {
		return c, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return c, nil
}

func PrintVersion() (bool, *viper.Viper, error) {
	v, err := getViper()
	if err != nil {
		return false, nil, err
	}
	return v.GetBool(versionKey), v, nil
}
