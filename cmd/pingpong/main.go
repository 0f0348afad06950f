// Command pingpong runs the runtime's demonstration server: an
// accept-loop thread feeding connections through a wake channel into a
// single-threaded executor, where each connection gets its own
// PING/PONG-echoing task.
package main

import (
	"flag"
	"os"

	"github.com/uringrt/uringrt"
	"github.com/uringrt/uringrt/examples/pingpong"
	"github.com/uringrt/uringrt/internal/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7890", "address to listen on")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	logFormat := flag.String("log-format", "text", "text or json")
	flag.Parse()

	level := logging.ParseLevel(*logLevel)
	logger := logging.NewLogger(&logging.Config{Level: level, Format: *logFormat, Output: os.Stderr})
	logging.SetDefault(logger)

	listenFd, err := pingpong.Listen(*addr)
	if err != nil {
		logger.WithError(err).Error("pingpong: failed to listen")
		os.Exit(1)
	}
	logger.Info("pingpong: listening on " + *addr)

	ex, err := uringrt.NewWithConfig(uringrt.Config{Logger: logger})
	if err != nil {
		logger.WithError(err).Error("pingpong: failed to create executor")
		os.Exit(1)
	}
	defer ex.Close()

	sender, receiver, err := uringrt.Channel[int32](ex.Observer())
	if err != nil {
		logger.WithError(err).Error("pingpong: failed to create wake channel")
		os.Exit(1)
	}
	defer receiver.Close()

	go pingpong.AcceptLoop(listenFd, sender, logger)

	ex.Spawn(pingpong.NewConnectionDispatcher(receiver))

	if err := ex.Run(); err != nil {
		logger.WithError(err).Error("pingpong: executor run loop exited with error")
		os.Exit(1)
	}

	snap := ex.Metrics().Snapshot()
	logger.Info("pingpong: shut down cleanly")
	logger.WithTask(0).Debugf("final metrics: tasks_spawned=%d tasks_completed=%d read_bytes=%d write_bytes=%d",
		snap.TasksSpawned, snap.TasksCompleted, snap.ReadBytes, snap.WriteBytes)
}
