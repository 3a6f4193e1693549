package control

import (
	"errors"
	"io"
	"testing"
)

func TestReadReply(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		wire string
		want Reply
	}{
		{
			name: "single line",
			wire: "250 OK\r\n",
			want: Reply{{Status: 250, Message: "OK"}},
		},
		{
			name: "multi line",
			wire: "250-version=Tor 0.4.7.13\r\n250 OK\r\n",
			want: Reply{
				{Status: 250, Message: "version=Tor 0.4.7.13"},
				{Status: 250, Message: "OK"},
			},
		},
		{
			name: "data block",
			wire: "250+config-text=\r\nNickname X\r\n..dotted\r\n.\r\n250 OK\r\n",
			want: Reply{
				{Status: 250, Message: "config-text=", Data: "Nickname X\n.dotted", HasData: true},
				{Status: 250, Message: "OK"},
			},
		},
		{
			name: "LF only lines accepted",
			wire: "250 OK\n",
			want: Reply{{Status: 250, Message: "OK"}},
		},
		{
			name: "empty message",
			wire: "250 \r\n",
			want: Reply{{Status: 250, Message: ""}},
		},
		{
			name: "event reply",
			wire: "650 BW 1024 2048\r\n",
			want: Reply{{Status: 650, Message: "BW 1024 2048"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := readReply(lineSource(tc.wire))
			if err != nil {
				t.Fatalf("readReply() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("readReply() = %+v, want %+v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("line %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestReadReplyErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		wire string
	}{
		{name: "line too short", wire: "25\r\n"},
		{name: "empty line", wire: "\r\n\r\n"},
		{name: "non-digit status", wire: "25x OK\r\n"},
		{name: "EOF mid reply", wire: "250-partial\r\n"},
		{name: "EOF inside data block", wire: "250+key=\r\nline\r\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := readReply(lineSource(tc.wire))
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("readReply() error = %v, want *SyntaxError", err)
			}
		})
	}
}

func TestReadReplyCleanEOF(t *testing.T) {
	t.Parallel()

	reply, err := readReply(lineSource(""))
	if !errors.Is(err, io.EOF) {
		t.Errorf("readReply() error = %v, want io.EOF", err)
	}
	if reply != nil {
		t.Errorf("readReply() = %+v, want nil", reply)
	}
}

func TestReplyHelpers(t *testing.T) {
	t.Parallel()

	if got := (Reply{}).Status(); got != 0 {
		t.Errorf("empty Reply Status() = %d, want 0", got)
	}
	event := Reply{{Status: 650, Message: "BW 1 2"}}
	if !event.IsEvent() {
		t.Error("650 reply should be an event")
	}
	ok := Reply{{Status: 250, Message: "OK"}}
	if ok.IsEvent() {
		t.Error("250 reply should not be an event")
	}
}
