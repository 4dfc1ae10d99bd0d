package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}

	return &impl{
		name:      newName,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs []error
	for _, appender := range imp.appenders {
		if err := appender.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (imp *impl) shouldLog(logLevel Level) bool {
	return logLevel >= imp.level.Get()
}

// write hands one entry to every appender. It must be called exactly two frames below the
// exported log method so the caller lookup lands on user code.
func (imp *impl) write(logLevel Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		LoggerName: imp.name,
		Time:       time.Now(),
		Level:      logLevel.AsZap(),
		Message:    msg,
		Caller:     getCaller(),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

func (imp *impl) logArgs(logLevel Level, args []interface{}) {
	if imp.shouldLog(logLevel) {
		imp.write(logLevel, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) logf(logLevel Level, template string, args []interface{}) {
	if imp.shouldLog(logLevel) {
		imp.write(logLevel, fmt.Sprintf(template, args...), nil)
	}
}

// logw pairs up keysAndValues; odd elements are keys. Keys that are not strings are
// formatted with %v.
func (imp *impl) logw(logLevel Level, msg string, keysAndValues []interface{}) {
	if !imp.shouldLog(logLevel) {
		return
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
		}
	}
	imp.write(logLevel, msg, fields)
}

func (imp *impl) Debug(args ...interface{})                   { imp.logArgs(DEBUG, args) }
func (imp *impl) Debugf(template string, args ...interface{}) { imp.logf(DEBUG, template, args) }
func (imp *impl) Debugw(msg string, kvs ...interface{})       { imp.logw(DEBUG, msg, kvs) }
func (imp *impl) Info(args ...interface{})                    { imp.logArgs(INFO, args) }
func (imp *impl) Infof(template string, args ...interface{})  { imp.logf(INFO, template, args) }
func (imp *impl) Infow(msg string, kvs ...interface{})        { imp.logw(INFO, msg, kvs) }
func (imp *impl) Warn(args ...interface{})                    { imp.logArgs(WARN, args) }
func (imp *impl) Warnf(template string, args ...interface{})  { imp.logf(WARN, template, args) }
func (imp *impl) Warnw(msg string, kvs ...interface{})        { imp.logw(WARN, msg, kvs) }
func (imp *impl) Error(args ...interface{})                   { imp.logArgs(ERROR, args) }
func (imp *impl) Errorf(template string, args ...interface{}) { imp.logf(ERROR, template, args) }
func (imp *impl) Errorw(msg string, kvs ...interface{})       { imp.logw(ERROR, msg, kvs) }

// getCaller returns the file/line of the code that called the exported log method.
func getCaller() zapcore.EntryCaller {
	var ok bool
	var entryCaller zapcore.EntryCaller
	// getCaller, write, the level helper, the exported method
	const skipToLogCaller = 4
	entryCaller.PC, entryCaller.File, entryCaller.Line, ok = runtime.Caller(skipToLogCaller)
	if !ok {
		return entryCaller
	}
	entryCaller.Defined = true

	if runtimeFunc := runtime.FuncForPC(entryCaller.PC); runtimeFunc != nil {
		entryCaller.Function = runtimeFunc.Name()
	}
	return entryCaller
}
