// Package logger builds zerolog loggers for batchflow components.
//
// Components accept a plain zerolog.Logger; this package only turns a Config
// (level, format, output) into one and defines the shared field names.
//
//	log := logger.New(logger.Config{Level: "debug", Format: "json"}, "importer")
//	p := pipeline.From(rows).WithLogger(log)
package logger
