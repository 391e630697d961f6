package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/mishloach/pkg/logging"
)

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitDB, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

// newLogger logs to stderr so stdout carries only the JSON result line.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logrus.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		level = logrus.WarnLevel
	}
	logger := logging.ConsoleLogger(level)
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}
