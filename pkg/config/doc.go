// Package config loads batchflow settings with viper.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, a .env
// file, BATCHFLOW_* environment variables, explicitly set command-line flags.
//
//	cfg, err := config.Load(config.WithConfigFile("batchflow.yml"))
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Pipeline.Workers, cfg.Pipeline.Timeout)
//
// Example file:
//
//	pipeline:
//	  name: import
//	  workers: 8
//	  queue_size: 100
//	  timeout: 30s
//	logging:
//	  level: debug
//	  format: json
//	metrics:
//	  enabled: true
package config
