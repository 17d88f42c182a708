// Package config loads the dashboard configuration.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables use the INVDASH_ prefix and the section name:
//
//	INVDASH_SERVER_PORT=8080
//	INVDASH_PATHS_DATA_DIR=/srv/app_data
//	INVDASH_PIPELINE_TIME_CUTOFF=41
//	INVDASH_PIPELINE_DIVISION_POLICY=ieee
//	INVDASH_LOGGING_LEVEL=debug
//
// # Configuration File
//
// INVDASH_CONFIG names the YAML file. Without it, config.yaml and
// configs/config.yaml are tried in the working directory.
//
//	pipeline:
//	  time_cutoff: 40
//	  rounding: half_even
//	  schema: full
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pipelineCfg, err := cfg.Selection()
package config
