package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Error kinds and the fatal-error funnel.
 *
 * Description:	Every fallible operation returns its error upward.
 *		Callbacks that observe one hand it to the ErrorSink,
 *		which invokes the host's exit callback.  The device is
 *		interactive and user-restartable so nothing retries.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

var (
	ErrIO       = errors.New("i/o error")
	ErrProtocol = errors.New("protocol error")
	ErrConfig   = errors.New("config error")
	ErrRange    = errors.New("range error")
)

/* ioErrorf et al. tag an error with its kind while keeping the
 * human-readable origin ("subsystem: operation: cause"). */

func ioErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIO, fmt.Sprintf(format, a...))
}

func protocolErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, a...))
}

func configErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, a...))
}

// ErrorSink routes fatal errors to the host exit callback.  One sink
// per application; children hold a reference instead of a back-pointer
// to the parent.
type ErrorSink struct {
	notifyExit func(err error)
}

func NewErrorSink(notifyExit func(err error)) *ErrorSink {
	return &ErrorSink{notifyExit: notifyExit}
}

func (sink *ErrorSink) Fatal(err error) {
	if err == nil {
		return
	}
	log.Error("fatal error, shutting down", "err", err)
	if sink.notifyExit != nil {
		sink.notifyExit(err)
	}
}
