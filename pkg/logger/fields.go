package logger

import "go.uber.org/zap"

// Field is a structured log field.
type Field = zap.Field

func String(key, value string) Field { return zap.String(key, value) }

func Int(key string, value int) Field { return zap.Int(key, value) }

func Int64(key string, value int64) Field { return zap.Int64(key, value) }

func Float64(key string, v float64) Field { return zap.Float64(key, v) }

func Bool(key string, value bool) Field { return zap.Bool(key, value) }

func Any(key string, value interface{}) Field { return zap.Any(key, value) }

func Error(err error) Field { return zap.Error(err) }
