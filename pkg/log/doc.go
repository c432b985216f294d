/*
Package log provides structured logging for the workbench worker, built on
zerolog.

Call Init once at process start, then derive child loggers per component:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("scheduler")
	logger.Info().Str("pod", podName).Msg("stopping workspace")

Console output (the default) is for interactive use; JSON output is for
cluster log aggregation. The level applies globally.
*/
package log
