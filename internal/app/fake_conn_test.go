package app

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Chat/internal/core"
)

type fakeConn struct {
	frames []core.Frame
	full   bool
	closed int
}

func (c *fakeConn) TrySend(f core.Frame) error {
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() { c.closed++ }

func (c *fakeConn) types() []string {
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &env)
		out = append(out, env.Type)
	}
	return out
}
