package input

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPump_DeliversEveryLine(t *testing.T) {
	src := strings.NewReader("Berlin\r\n\nNew York\n  Tokyo  ")

	var got []string
	err := Pump(context.Background(), NewLineReader(src), func(q string) {
		got = append(got, q)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "", "New York", "  Tokyo  "}, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestPump_ReportsReadError(t *testing.T) {
	err := Pump(context.Background(), NewLineReader(failingReader{}), func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
}

func TestStart_ClosesOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	r := NewLineReader(pr)
	r.Start(ctx)

	go pw.Write([]byte("Lisbon\n"))
	select {
	case q := <-r.Queries():
		assert.Equal(t, "Lisbon", q)
	case <-time.After(2 * time.Second):
		t.Fatal("no query delivered")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-r.Queries()
		return !ok
	}, 2*time.Second, 5*time.Millisecond)
}
