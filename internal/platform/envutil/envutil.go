// Package envutil reads typed settings from the environment. Unset or
// unparsable values fall back to the default.
package envutil

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup[T any](name string, def T, parse func(string) (T, error)) T {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func String(name, def string) string {
	return lookup(name, def, func(v string) (string, error) { return v, nil })
}

func Int(name string, def int) int {
	return lookup(name, def, strconv.Atoi)
}

func Float(name string, def float64) float64 {
	return lookup(name, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

var errNotBool = errors.New("not a boolean")

func Bool(name string, def bool) bool {
	return lookup(name, def, func(v string) (bool, error) {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// Duration accepts Go duration strings ("500ms") or bare integers as milliseconds.
func Duration(name string, def time.Duration) time.Duration {
	return lookup(name, def, func(v string) (time.Duration, error) {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		return time.ParseDuration(v)
	})
}

// List splits a comma separated value, dropping blanks.
func List(name string, def []string) []string {
	return lookup(name, def, func(v string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, errors.New("empty list")
		}
		return out, nil
	})
}
