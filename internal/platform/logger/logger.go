package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	fields        fieldPolicy
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: z.Sugar(), fields: policyFromEnv()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.fields.apply(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.fields.apply(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.fields.apply(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.fields.apply(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.fields.apply(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.fields.apply(keysAndValues)...), fields: l.fields}
}

// For returns a child logger tagged with the request and trace ids of ctx.
func (l *Logger) For(ctx context.Context) *Logger {
	kv := ctxutil.LogFields(ctx)
	if len(kv) == 0 {
		return l
	}
	return l.With(kv...)
}

type fieldAction int

const (
	keep fieldAction = iota
	redact
	hash
)

// fieldPolicy drops credentials and pseudonymizes the people who create,
// submit or delete audits. Matching is by substring of the lower-cased key.
type fieldPolicy struct {
	enabled bool
	salt    string
}

var fieldRules = []struct {
	fragment string
	action   fieldAction
}{
	{"password", redact},
	{"secret", redact},
	{"token", redact},
	{"credentials", redact},
	{"authorization", redact},
	{"dsn", redact},
	{"user_name", hash},
	{"display_name", hash},
	{"created_by", hash},
	{"submitted_by", hash},
	{"deleted_by", hash},
}

func policyFromEnv() fieldPolicy {
	p := fieldPolicy{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		p.enabled = false
	}
	return p
}

func (p fieldPolicy) apply(kv []interface{}) []interface{} {
	if !p.enabled || len(kv) < 2 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		switch actionFor(fmt.Sprint(out[i])) {
		case redact:
			out[i+1] = "[REDACTED]"
		case hash:
			out[i+1] = p.hash(out[i+1])
		}
	}
	return out
}

func actionFor(key string) fieldAction {
	key = strings.ToLower(key)
	for _, r := range fieldRules {
		if strings.Contains(key, r.fragment) {
			return r.action
		}
	}
	return keep
}

func (p fieldPolicy) hash(v interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(v))
	if v == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}
