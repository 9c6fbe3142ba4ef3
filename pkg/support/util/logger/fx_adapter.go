package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter routes fx lifecycle events into a Logger.
// Failures are reported at WARN so that the pipeline's own error boundary
// stays the only place that emits an ERROR line for a failed run.
type FxLoggerAdapter struct {
	log *Logger
}

// NewFxLoggerAdapter creates an fxevent.Logger backed by l (or the default logger when l is nil).
func NewFxLoggerAdapter(l *Logger) fxevent.Logger {
	return &FxLoggerAdapter{log: OrDefault(l)}
}

// LogEvent logs events from Fx.
func (a *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	l := a.log
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.Debugf("OnStart hook executing: %s", extractMeaningfulFunctionName(e.FunctionName))
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.Warnf("OnStart hook failed: %s, error: %v", extractMeaningfulFunctionName(e.FunctionName), e.Err)
		} else {
			l.Debugf("OnStart hook executed: %s", extractMeaningfulFunctionName(e.FunctionName))
		}
	case *fxevent.OnStopExecuting:
		l.Debugf("OnStop hook executing: %s", extractMeaningfulFunctionName(e.FunctionName))
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.Warnf("OnStop hook failed: %s, error: %v", extractMeaningfulFunctionName(e.FunctionName), e.Err)
		} else {
			l.Debugf("OnStop hook executed: %s", extractMeaningfulFunctionName(e.FunctionName))
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			l.Warnf("Supplied failed: %v", e.Err)
		} else {
			l.Debugf("Supplied: %s", e.TypeName)
		}
	case *fxevent.Provided:
		for _, rtype := range e.OutputTypeNames {
			l.Debugf("Provided: %s", rtype)
		}
		if e.Err != nil {
			l.Warnf("Provide error: %v", e.Err)
		}
	case *fxevent.Invoking:
		l.Debugf("Invoking: %s", extractMeaningfulFunctionName(e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.Warnf("Invoke failed: %s, error: %v", e.FunctionName, e.Err)
		}
	case *fxevent.RollingBack:
		l.Warnf("Start failed, rolling back, error: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.Warnf("Rollback failed, error: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.Debugf("Start failed, error: %v", e.Err)
		} else {
			l.Debugf("Application wiring started.")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.Warnf("Logger initialization failed, error: %v", e.Err)
		} else {
			l.Debugf("Custom logger initialized: %s", e.ConstructorName)
		}
	}
}

// extractMeaningfulFunctionName strips the anonymous function suffix (".func1") from Fx's FunctionName.
func extractMeaningfulFunctionName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
