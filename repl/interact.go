package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
)

const (
	historyFile = ".chartdata_history"
)

// Console reads lines from the terminal with editing and history.
type Console struct {
	line *liner.State
}

func Interact() *Console {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return &Console{line: line}
}

func (c *Console) ReadLine() (string, error) {
	s, err := c.line.Prompt("chartdata: ")
	if err == liner.ErrPromptAborted {
		return "", io.EOF
	} else if err != nil {
		return "", err
	}
	c.line.AppendHistory(s)
	return s, nil
}

// Close saves the history and restores the terminal.
func (c *Console) Close() error {
	defer c.line.Close()

	f, err := os.Create(historyFile)
	if err != nil {
		return fmt.Errorf("repl: error writing history file, %s: %s", historyFile, err)
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

type lines struct {
	scanner *bufio.Scanner
}

// Lines returns a LineReader over r.
func Lines(r io.Reader) LineReader {
	return lines{scanner: bufio.NewScanner(r)}
}

func (l lines) ReadLine() (string, error) {
	if !l.scanner.Scan() {
		err := l.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		return "", err
	}
	return l.scanner.Text(), nil
}
