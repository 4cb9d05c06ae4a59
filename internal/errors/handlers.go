package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for the command line interface
type CLIErrorHandler struct {
	Verbose bool
	Logger  *slog.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, logger *slog.Logger) *CLIErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorHandler{
		Verbose: verbose,
		Logger:  logger,
	}
}

// HandleError logs err and returns a display-ready error
func (h *CLIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)

	if h.Verbose {
		attrs := []any{
			"code", appErr.Code,
			"severity", appErr.Severity,
			"category", appErr.Category,
		}
		if appErr.Cause != nil {
			attrs = append(attrs, "cause", appErr.Cause)
		}
		h.Logger.Debug(appErr.Message, attrs...)
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	msg := appErr.Message
	if appErr.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, appErr.Details)
	}
	if h.Verbose && appErr.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, appErr.Cause)
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", msg)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", msg)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", msg)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", msg)
	default:
		return fmt.Sprintf("❌ %s", msg)
	}
}

// FatalStartupMessage renders the blocking message shown when the library cannot be opened
// at all. Re-running the command is the only recovery.
func (h *CLIErrorHandler) FatalStartupMessage(err error) string {
	var b strings.Builder
	b.WriteString("🔥 The prompt library could not be opened.\n\n")
	b.WriteString(h.FormatError(err))
	b.WriteString("\n\nNothing was changed. Fix the problem above and run the command again.\n")
	return b.String()
}
