// Package wire implements the line protocol spoken between the host and the
// firmware. It has no dependencies outside the standard library so the
// firmware can build it with TinyGo.
//
// One ASCII request per line, one reply line per request. Every reply to a
// well-formed request starts with the request's tag:
//
//	R T       -> T <code>          temperature sensor conversion
//	R V       -> V <code>          reference voltage conversion
//	C <id>    -> C<id> <value>     factory calibration constant
//	failure   -> <tag> E <reason>
//	garbage   -> E <reason>
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Channel symbols.
const (
	Temperature = "T"
	Reference   = "V"
)

// MaxLine bounds a request or reply line, terminator excluded.
const MaxLine = 32

const (
	cmdRead     = "R"
	cmdConstant = "C"
	replyError  = "E"
)

var (
	ErrMalformed      = errors.New("malformed request")
	ErrUnknownCommand = errors.New("unknown command")
	// ErrStale marks a well-formed reply that answers a different request.
	ErrStale = errors.New("reply to another request")
)

// ReadRequest returns the request converting the channel sym.
func ReadRequest(sym string) string {
	return cmdRead + " " + sym
}

// ConstantRequest returns the request for factory constant id.
func ConstantRequest(id uint8) string {
	return cmdConstant + " " + strconv.Itoa(int(id))
}

// Tag returns the tag carried by replies to req.
func Tag(req string) (string, error) {
	r, err := parse(req)
	if err != nil {
		return "", err
	}
	return r.tag(), nil
}

// ParseReply parses a reply line to the request tagged tag into a 16-bit
// value. A reply carrying another tag yields ErrStale. Untagged error
// replies are taken as the answer.
func ParseReply(tag, line string) (uint16, error) {
	head, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if head == replyError {
		return 0, deviceError(rest)
	}
	if head != tag {
		return 0, fmt.Errorf("%w: %q", ErrStale, line)
	}

	rest = strings.TrimSpace(rest)
	if rest == replyError || strings.HasPrefix(rest, replyError+" ") {
		return 0, deviceError(rest[len(replyError):])
	}
	v, err := strconv.ParseUint(rest, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid reply %q: %w", line, err)
	}
	return uint16(v), nil
}

func deviceError(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unspecified"
	}
	return fmt.Errorf("device error: %s", reason)
}

// Handler serves requests on the firmware side.
type Handler interface {
	Convert(sym string) (uint16, error)
	Constant(id uint8) (uint16, error)
}

// Respond answers one request line. The reply carries no line terminator.
func Respond(line string, h Handler) string {
	r, err := parse(line)
	if err != nil {
		return replyError + " " + err.Error()
	}

	var v uint16
	if r.cmd == cmdConstant {
		v, err = h.Constant(r.id)
	} else {
		v, err = h.Convert(r.sym)
	}
	if err != nil {
		return r.tag() + " " + replyError + " " + err.Error()
	}
	return r.tag() + " " + strconv.FormatUint(uint64(v), 10)
}

type request struct {
	cmd string
	sym string
	id  uint8
}

func parse(line string) (request, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return request{}, ErrMalformed
	}

	r := request{cmd: fields[0]}
	switch r.cmd {
	case cmdRead:
		// A read tagged E would look like an untagged error.
		if fields[1] == replyError {
			return request{}, ErrMalformed
		}
		r.sym = fields[1]
	case cmdConstant:
		id, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil {
			return request{}, ErrMalformed
		}
		r.id = uint8(id)
	default:
		return request{}, ErrUnknownCommand
	}
	return r, nil
}

func (r request) tag() string {
	if r.cmd == cmdConstant {
		return cmdConstant + strconv.Itoa(int(r.id))
	}
	return r.sym
}
