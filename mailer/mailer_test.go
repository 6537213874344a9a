package mailer

import (
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeSMTPServer speaks just enough SMTP for one plaintext session and
// reports whether the client closed it with QUIT.
func fakeSMTPServer(t *testing.T, ln net.Listener, sawQuit chan<- bool) {
	t.Helper()

	conn, err := ln.Accept()
	if err != nil {
		sawQuit <- false
		return
	}
	defer conn.Close()

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 test.local ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			sawQuit <- false
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-test.local")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			_ = tp.PrintfLine("235 accepted")
		case "MAIL", "RCPT":
			_ = tp.PrintfLine("250 ok")
		case "DATA":
			_ = tp.PrintfLine("354 go ahead")
			for {
				body, err := tp.ReadLine()
				if err != nil {
					sawQuit <- false
					return
				}
				if body == "." {
					break
				}
			}
			_ = tp.PrintfLine("250 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			sawQuit <- true
			return
		default:
			_ = tp.PrintfLine("250 ok")
		}
	}
}

func TestSendClosesSessionWithQuit(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	sawQuit := make(chan bool, 1)
	go fakeSMTPServer(t, ln, sawQuit)

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	m := New(Config{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "billing@test.local",
		Password: "secret",
		From:     "billing@test.local",
	}, logger)

	if err := m.send("buyer@test.local", "Test", "<p>hello</p>"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Delivery only counts once the server acknowledges QUIT.
	select {
	case ok := <-sawQuit:
		if !ok {
			t.Fatal("session ended without QUIT")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for QUIT")
	}
}

func TestSendUnconfigured(t *testing.T) {
	m := New(Config{}, logrus.New())
	if err := m.send("buyer@test.local", "Test", "<p>hello</p>"); err == nil {
		t.Fatal("expected error when mailer is unconfigured")
	}
}
