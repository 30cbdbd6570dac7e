package report

import (
	"fmt"
	"io"
)

// Output is the line-oriented sink reports are written to. Keeping it this
// small lets the same report land on a console, a file, a buffer or nowhere.
type Output interface {
	Write(s string)
	WriteLine(s string)
}

type writerOutput struct {
	w io.Writer
}

// NewOutput wraps any io.Writer as an Output.
func NewOutput(w io.Writer) Output {
	return &writerOutput{w: w}
}

func (o *writerOutput) Write(s string) {
	fmt.Fprint(o.w, s)
}

func (o *writerOutput) WriteLine(s string) {
	fmt.Fprintln(o.w, s)
}

type discardOutput struct{}

// Discard is an Output that drops everything.
var Discard Output = discardOutput{}

func (discardOutput) Write(string)     {}
func (discardOutput) WriteLine(string) {}
