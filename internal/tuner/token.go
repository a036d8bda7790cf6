package tuner

import (
	"errors"
	"strconv"
	"strings"

	"github.com/radio-control/rdoctl/internal/chanspec"
)

// StopToken is the one literal control token that is not of the
// cmd:cmd_id:params shape (§6).
const StopToken = "!STOP!"

// Command is a parsed control token of the form "cmd:cmd_id:params" (§6).
type Command struct {
	Name  string
	CmdID int
	Params string
}

// errMalformedToken is returned by ParseToken when a non-stop token does not
// have exactly three colon-separated fields, or cmd_id is not an integer.
var errMalformedToken = errors.New("invalid command format")

// errMalformedParams is returned by parseListenParams when listen's params
// are not of the form "<ch>-<width>".
var errMalformedParams = errors.New("invalid param format")

// ParseToken parses token per the control token grammar (§6). isStop
// reports the literal !STOP! token, in which case cmd is the zero value
// and err is nil. A non-stop token must split into exactly three
// colon-separated fields with an integer cmd_id; otherwise err wraps
// errMalformedToken.
func ParseToken(token string) (cmd Command, isStop bool, err error) {
	if token == StopToken {
		return Command{}, true, nil
	}
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return Command{}, false, errMalformedToken
	}
	id, convErr := strconv.Atoi(parts[1])
	if convErr != nil {
		return Command{}, false, errMalformedToken
	}
	return Command{Name: parts[0], CmdID: id, Params: parts[2]}, false, nil
}

// parseListenParams parses listen's params field, "<ch>-<width>", into a
// Channel.
func parseListenParams(params string) (chanspec.Channel, error) {
	parts := strings.Split(params, "-")
	if len(parts) != 2 {
		return chanspec.Channel{}, errMalformedParams
	}
	ch, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return chanspec.Channel{}, errMalformedParams
	}
	if parts[1] == "" {
		return chanspec.Channel{}, errMalformedParams
	}
	return chanspec.Channel{Ch: uint16(ch), Width: chanspec.Width(parts[1])}, nil
}
