package main

import (
	"os"

	"github.com/Sage-Bionetworks/synapsegenie/internal/config"
	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
)

// AppContext bundles long-lived services created at startup. CLI flags
// win over configuration-file values.
type AppContext struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *format.Registry
	Store    synapse.Store
}

// storeFactory is swapped in tests to avoid hitting a real endpoint.
var storeFactory = func(opts synapse.ClientOptions) synapse.Store {
	return synapse.NewClient(opts)
}

func buildAppContext(flags *rootFlags) (*AppContext, error) {
	cfg := &config.Config{}
	if flags.configPath != "" {
		parsed, err := config.ParseConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	log, err := logger.New(logger.Options{
		Level:         firstNonEmpty(flags.logLevel, cfg.LogLevel, "info"),
		HumanReadable: true,
	})
	if err != nil {
		return nil, err
	}

	policy, err := format.ParsePolicy(firstNonEmpty(flags.policy, cfg.Policy, "strict"))
	if err != nil {
		return nil, err
	}

	packages := flags.registryPackages
	if len(packages) == 0 {
		packages = cfg.RegistryPackages
	}
	if len(packages) == 0 {
		packages = format.Packages()
	}
	registry, err := format.BuildRegistry(packages, policy, log)
	if err != nil {
		return nil, err
	}

	store := storeFactory(synapse.ClientOptions{
		Endpoint:  firstNonEmpty(flags.endpoint, cfg.Endpoint),
		AuthToken: firstNonEmpty(flags.authToken, cfg.AuthToken, os.Getenv("SYNAPSE_AUTH_TOKEN")),
		Logger:    log,
	})

	return &AppContext{Config: cfg, Logger: log, Registry: registry, Store: store}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
