package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// This won't be as verbose as tracing, which is likely for testing only.
var VerboseEnabled = false

func Fverbosef(w io.Writer, format string, v ...interface{}) {
	if VerboseEnabled {
		fmt.Fprintf(w, format, v...)
	}
}

// Where Tracef output goes. Tests may swap this out.
var TraceWriter io.Writer = os.Stderr

var tracingLoaded = false

// Tags enabled. Value ignored
var TraceSetting = map[string]bool{}

// Supply the PSXTAX_TRACE environment variable with a comma-separated list of
// trace tags to enable. eg. PSXTAX_TRACE=ledger,corpaction
func LoadTraceSetting() {
	tracingLoaded = true
	traceVar := os.Getenv("PSXTAX_TRACE")
	if traceVar == "" {
		return
	}
	for _, tag := range strings.Split(traceVar, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			TraceSetting[tag] = true
		}
	}
}

func TraceEnabled(tag string) bool {
	if !tracingLoaded {
		LoadTraceSetting()
	}
	_, ok := TraceSetting[tag]
	return ok
}

func Tracef(tag string, format string, v ...interface{}) {
	if TraceEnabled(tag) {
		fmt.Fprintf(TraceWriter, "TR "+tag+" "+format+"\n", v...)
	}
}

type ErrorPrinter interface {
	Ln(v ...interface{})
	F(format string, v ...interface{})
}

// The default ErrorPrinter
type StderrErrorPrinter struct{}

func (p *StderrErrorPrinter) Ln(v ...interface{}) {
	fmt.Fprintln(os.Stderr, v...)
}

func (p *StderrErrorPrinter) F(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}

// BufErrorPrinter collects errors in memory. Used by tests.
type BufErrorPrinter struct {
	Buf strings.Builder
}

func (p *BufErrorPrinter) Ln(v ...interface{}) {
	fmt.Fprintln(&p.Buf, v...)
}

func (p *BufErrorPrinter) F(format string, v ...interface{}) {
	fmt.Fprintf(&p.Buf, format, v...)
}
