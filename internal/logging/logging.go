package logging

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"
)

// EnvLogFile names the environment variable holding the debug log path.
const EnvLogFile = "CHATPATCH_LOG_FILE"

var mu sync.Mutex

// Log appends a timestamped printf-style line to the file named by
// CHATPATCH_LOG_FILE. It is a no-op when the variable is unset or the file
// cannot be opened.
func Log(format string, args ...any) {
	path := os.Getenv(EnvLogFile)
	if path == "" {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	var b bytes.Buffer
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000 "))
	_, _ = fmt.Fprintf(&b, format, args...)
	if b.Bytes()[b.Len()-1] != '\n' {
		_ = b.WriteByte('\n')
	}
	_, _ = f.Write(b.Bytes())
}
