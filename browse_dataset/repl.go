package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unixpickle/splat-prep/browse"
)

const helpText = "Commands: n (next), p (previous), j N (jump to image N), i (info), q (quit)"

// RunCommands reads one command per line until q or the end of
// input, printing the current image after every move.
func RunCommands(r io.Reader, w io.Writer, datasetDir string, cursor browse.Cursor) error {
	printCurrent := func() {
		fmt.Fprintf(w, "Image %d/%d: %s\n", cursor.Index()+1, cursor.Len(),
			filepath.Base(cursor.Current()))
	}
	printCurrent()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "n":
			cursor = cursor.Next()
			printCurrent()
		case "p":
			cursor = cursor.Prev()
			printCurrent()
		case "j":
			if len(fields) != 2 {
				fmt.Fprintln(w, "usage: j N")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(w, "invalid image number:", fields[1])
				continue
			}
			next, err := cursor.Jump(n - 1)
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			cursor = next
			printCurrent()
		case "i":
			info, err := browse.ReadInfo(cursor.Current())
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			fmt.Fprintf(w, "Dataset: %s\n", filepath.Base(datasetDir))
			fmt.Fprintf(w, "Total Images: %d\n", cursor.Len())
			fmt.Fprintf(w, "Current: %d\n", cursor.Index()+1)
			fmt.Fprintf(w, "Image: %s\n", filepath.Base(info.Path))
			fmt.Fprintf(w, "Resolution: %dx%d\n", info.Width, info.Height)
			fmt.Fprintf(w, "Path: %s\n", datasetDir)
		case "q":
			return nil
		default:
			fmt.Fprintln(w, helpText)
		}
	}
	return scanner.Err()
}
