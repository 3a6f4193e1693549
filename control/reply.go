package control

import (
	"errors"
	"io"
)

// ReplyLine is one parsed line of a control protocol reply.
type ReplyLine struct {
	// Status is the 3-digit status code at the start of the line.
	Status int

	// Message is the text after the status code and divider, with the
	// line terminator stripped.
	Message string

	// Data holds the decoded multi-line data block that followed a '+'
	// divider. It is meaningful only when HasData is true; an empty
	// block and an absent block both leave Data empty.
	Data string

	// HasData reports whether the line carried a data block.
	HasData bool
}

// Reply is a complete response to one command: one or more reply lines,
// the last of which used the space divider. For event replies the first
// line's status is in the 6xx class.
type Reply []ReplyLine

// Status returns the status code of the first line, or 0 for an empty
// reply.
func (r Reply) Status() int {
	if len(r) == 0 {
		return 0
	}
	return r[0].Status
}

// IsEvent reports whether the reply is an asynchronous event, i.e. its
// first-line status is in the 6xx class.
func (r Reply) IsEvent() bool {
	return r.Status()/100 == 6
}

// parseStatus converts the first three bytes of line into a status
// code. It returns false when any of them is not an ASCII digit.
func parseStatus(line string) (int, bool) {
	status := 0
	for i := 0; i < 3; i++ {
		c := line[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		status = status*10 + int(c-'0')
	}
	return status, true
}

// readReply assembles one complete reply from next, which yields input
// lines without their terminators and io.EOF at end of stream.
//
// End of stream before the first line is a clean close and is reported
// as io.EOF with a nil reply; end of stream anywhere after that is a
// *SyntaxError. Malformed lines (shorter than four characters, or with
// a non-digit status code) are also *SyntaxErrors.
func readReply(next func() (string, error)) (Reply, error) {
	var reply Reply
	for {
		line, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) && len(reply) == 0 {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return nil, &SyntaxError{Reason: "connection closed in the middle of a reply"}
			}
			return nil, err
		}
		if len(line) < 4 {
			return nil, &SyntaxError{Line: line, Reason: "line too short"}
		}
		status, ok := parseStatus(line)
		if !ok {
			return nil, &SyntaxError{Line: line, Reason: "status code is not numeric"}
		}
		divider := line[3]
		rl := ReplyLine{Status: status, Message: line[4:]}
		if divider == '+' {
			data, err := readDataBlock(next)
			if err != nil {
				return nil, err
			}
			rl.Data = data
			rl.HasData = true
		}
		reply = append(reply, rl)
		if divider == ' ' {
			return reply, nil
		}
	}
}
