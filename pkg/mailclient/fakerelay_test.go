package mailclient_test

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRelay is a tiny plain-text SMTP responder, enough for go-smtp client to complete one transaction.
type fakeRelay struct {
	listener net.Listener

	// rejectAuth makes AUTH command fail with 535.
	rejectAuth bool
	// rejectRcpt makes RCPT command fail with 550.
	rejectRcpt bool

	mu       sync.Mutex
	commands []string
	data     []string
	wg       sync.WaitGroup
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r := &fakeRelay{listener: l}
	r.wg.Add(1)
	go r.serve()

	t.Cleanup(func() {
		_ = l.Close()
		r.wg.Wait()
	})

	return r
}

func (r *fakeRelay) Port() int {
	return r.listener.Addr().(*net.TCPAddr).Port
}

func (r *fakeRelay) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func (r *fakeRelay) Data() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.data...)
}

func (r *fakeRelay) serve() {
	defer r.wg.Done()

	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}

		r.handle(conn)
	}
}

func (r *fakeRelay) handle(conn net.Conn) {
	defer conn.Close()

	rd := bufio.NewReader(conn)
	write := func(s string) {
		_, _ = conn.Write([]byte(s + "\r\n"))
	}

	write("220 fake.relay ESMTP")
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		r.mu.Lock()
		r.commands = append(r.commands, verb)
		r.mu.Unlock()

		switch verb {
		case "EHLO":
			write("250-fake.relay")
			write("250 AUTH PLAIN")
		case "HELO":
			write("250 fake.relay")
		case "AUTH":
			if r.rejectAuth {
				write("535 5.7.8 Username and Password not accepted")
				continue
			}
			write("235 2.7.0 Accepted")
		case "MAIL":
			write("250 2.1.0 OK")
		case "RCPT":
			if r.rejectRcpt {
				write("550 5.1.1 No such user")
				continue
			}
			write("250 2.1.5 OK")
		case "DATA":
			write("354 Go ahead")
			var sb strings.Builder
			for {
				dataLine, err := rd.ReadString('\n')
				if err != nil {
					return
				}
				if dataLine == ".\r\n" {
					break
				}
				sb.WriteString(dataLine)
			}

			r.mu.Lock()
			r.data = append(r.data, sb.String())
			r.mu.Unlock()
			write("250 2.0.0 OK queued")
		case "RSET", "NOOP":
			write("250 OK")
		case "QUIT":
			write("221 2.0.0 Bye")
			return
		case "*":
			write("501 cancelled")
		default:
			write("502 5.5.1 Unrecognized command")
		}
	}
}
