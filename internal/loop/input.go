package loop

import (
	"bufio"
	"io"
)

// ReadLines forwards lines read from r until EOF and then closes the
// channel. The reader goroutine blocks until each line is taken.
func ReadLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}
