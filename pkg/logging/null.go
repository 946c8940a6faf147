package logging

import "context"

// NullLogger drops every entry; runMerge uses it when no --log-file is set
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Debug(context.Context, string, Fields) {}

func (*NullLogger) Info(context.Context, string, Fields) {}

func (*NullLogger) Warn(context.Context, string, Fields) {}

func (*NullLogger) Error(context.Context, string, error, Fields) {}

// WithFields returns the receiver; there is nothing to annotate
func (l *NullLogger) WithFields(Fields) Logger {
	return l
}

func (*NullLogger) Close() error {
	return nil
}
