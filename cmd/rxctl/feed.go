package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli"

	"github.com/aistorerx/rxstream/config"
	"github.com/aistorerx/rxstream/dtype"
	"github.com/aistorerx/rxstream/epstate"
	"github.com/aistorerx/rxstream/rxengine"
	"github.com/aistorerx/rxstream/transport"
)

var feedCommand = cli.Command{
	Name:  "feed",
	Usage: "feed synthetic AM fragments into an in-process engine and drain them with recv_nbx",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "endpoint", Value: 1, Usage: "endpoint id"},
		cli.StringFlag{Name: "payload", Value: "hello, rxstream", Usage: "fragment payload"},
		cli.IntFlag{Name: "fragments", Value: 1, Usage: "number of equal-size fragments to split the payload into"},
		cli.BoolFlag{Name: "json", Usage: "print the result as JSON instead of plain text"},
		cli.StringFlag{Name: "config", Usage: "path to a YAML config file (falls back to built-in defaults)"},
	},
	Action: runFeed,
}

// feedResult is what --json renders, marshaled with jsoniter the way the
// teacher's api package marshals its own wire responses (e.g. api/authn.go).
type feedResult struct {
	EndpointID uint64 `json:"endpoint_id"`
	Bytes      int    `json:"bytes"`
	Payload    string `json:"payload"`
}

func runFeed(c *cli.Context) error {
	epID := c.Uint64("endpoint")
	payload := []byte(c.String("payload"))
	n := c.Int("fragments")
	if n < 1 {
		n = 1
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	e := rxengine.NewFromConfig(cfg, nil, nil)
	defer e.Close()
	ep := e.EPInit(epID)
	e.EPActivate(ep)

	dst := make([]byte, len(payload))
	done := make(chan struct{})
	closeOnce := func() {
		select {
		case <-done:
		default:
			close(done)
		}
	}
	h := e.RecvNBX(ep, rxengine.Params{
		Class: dtype.Contig, ElemSize: 1, Count: len(payload), Buf: dst, WaitAll: true,
		Callback: func(_ *epstate.Request, length int64, status error) { closeOnce() },
	})
	if h.Done {
		closeOnce()
	}

	chunk := (len(payload) + n - 1) / n
	for off := 0; off < len(payload); off += chunk {
		end := off + chunk
		if end > len(payload) {
			end = len(payload)
		}
		if _, err := e.AMHandler(transport.Delivery{
			Header:  transport.AMHeader{EndpointID: epID},
			Payload: append([]byte(nil), payload[off:end]...),
		}); err != nil {
			return err
		}
	}

	<-done

	if c.Bool("json") {
		out, err := jsoniter.Marshal(feedResult{EndpointID: epID, Bytes: len(dst), Payload: string(dst)})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("received %d bytes: %q\n", len(dst), dst)
	return nil
}
