package port

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

// ErrorAction converts err into a user-facing Error action. Cancellation is not
// reported: ok is false when err is nil or the work was cancelled.
func ErrorAction(err error) (action.Action, bool) {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil, false
	}
	return action.Error{Message: err.Error(), Suggestion: suggestion(err)}, true
}

func suggestion(err error) string {
	var rateLimited api.RateLimitedError
	var retrieve *oauth2.RetrieveError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Press L to log in again."
	case errors.Is(err, api.ErrNotFound):
		return "Check that the job id or path still exists."
	case errors.Is(err, api.ErrTransfer):
		return "Retry the download; large files are staged on the server first."
	case errors.As(err, &rateLimited):
		if rateLimited.RetryAfterSeconds > 0 {
			return fmt.Sprintf("Wait %ds before trying again.", rateLimited.RetryAfterSeconds)
		}
		return "Wait a moment before trying again."
	case errors.As(err, &retrieve):
		switch retrieve.ErrorCode {
		case "access_denied":
			return "The request was denied in the browser. Press L to start over."
		case "expired_token":
			return "The code expired before it was confirmed. Press L to get a new one."
		}
		return "Press L to try logging in again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server did not answer in time. Check your connection."
	default:
		return ""
	}
}
