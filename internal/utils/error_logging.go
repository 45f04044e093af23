package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// LogErrorToFile appends one line describing err and its context to the file
// at logFilePath. Failures to open or write the file are logged and dropped.
func LogErrorToFile(logFilePath string, err error, context map[string]string) {
	file, openErr := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		slog.Error("Failed to open error log file", "path", logFilePath, "error", openErr)
		return
	}
	defer file.Close()

	timestamp := time.Now().Format(time.RFC3339)
	contextJSON, _ := json.Marshal(context) // map[string]string always marshals

	logEntry := fmt.Sprintf("[%s] OriginalError: %v | Context: %s\n", timestamp, err, string(contextJSON))

	if _, writeErr := file.WriteString(logEntry); writeErr != nil {
		slog.Error("Failed to write to error log file", "path", logFilePath, "error", writeErr)
	}
}
