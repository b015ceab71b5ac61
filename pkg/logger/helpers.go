package logger

import (
	"fmt"
	"strings"
)

// Success logs a success message.
func Success(args ...interface{}) {
	defaultLogger.Info("✅ " + fmt.Sprint(args...))
}

// Successf logs a formatted success message.
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message for a long-running step.
func Progress(args ...interface{}) {
	defaultLogger.Info("🔄 " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message.
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// LogSection prints a visual section separator.
func LogSection(title string) {
	line := strings.Repeat("=", 50)

	if l, ok := defaultLogger.(*logger); ok && !l.noColor {
		fmt.Println(colorCyan + line + colorReset)
		fmt.Println(colorCyan + colorBold + title + colorReset)
		fmt.Println(colorCyan + line + colorReset)
	} else {
		fmt.Println(line)
		fmt.Println(title)
		fmt.Println(line)
	}
}

// LogKeyValue prints a key-value pair.
func LogKeyValue(key string, value interface{}) {
	if l, ok := defaultLogger.(*logger); ok && !l.noColor {
		fmt.Printf("%s%s:%s %v\n", colorCyan, key, colorReset, value)
	} else {
		fmt.Printf("%s: %v\n", key, value)
	}
}
