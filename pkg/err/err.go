package errprocess

import (
	"fmt"
	"portal_chat_service/pkg/logger"
)

// Wrap log the cause and return a wrapped error
func Wrap(errMsg string, cause error) error {
	logger.Log.Errorf(errMsg, cause)
	return fmt.Errorf("%s: %w", errMsg, cause)
}
