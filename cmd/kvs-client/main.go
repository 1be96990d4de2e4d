// Command kvs-client sends a single set, get, or rm request to a
// kvs-server instance over TCP and prints the result (spec §6).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/iamNilotpal/kvs/internal/protocol"
	"github.com/iamNilotpal/kvs/pkg/options"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "set":
		runSet(args)
	case "get":
		runGet(args)
	case "rm":
		runRemove(args)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kvs-client <set|get|rm> [flags] <key> [value]")
}

func runSet(args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	addr := fs.String("addr", options.DefaultAddr, "server address")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "usage: kvs-client set [--addr ADDR] <key> <value>")
		os.Exit(1)
	}

	resp, err := roundTrip(*addr, protocol.SetRequest(rest[0], rest[1]))
	if err != nil {
		fail(err)
	}
	if !resp.Ok {
		fail(fmt.Errorf("%s", resp.Err))
	}
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	addr := fs.String("addr", options.DefaultAddr, "server address")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: kvs-client get [--addr ADDR] <key>")
		os.Exit(1)
	}

	resp, err := roundTrip(*addr, protocol.GetRequest(rest[0]))
	if err != nil {
		fail(err)
	}
	if !resp.Ok {
		fmt.Println("Key not found")
		return
	}
	fmt.Println(resp.Val)
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	addr := fs.String("addr", options.DefaultAddr, "server address")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: kvs-client rm [--addr ADDR] <key>")
		os.Exit(1)
	}

	resp, err := roundTrip(*addr, protocol.RemoveRequest(rest[0]))
	if err != nil {
		fail(err)
	}
	if !resp.Ok {
		fmt.Fprintln(os.Stderr, "Key not found")
		os.Exit(1)
	}
}

// roundTrip sends req to addr, half-closing the write side once the
// request is written, then reads back exactly one Response.
func roundTrip(addr string, req protocol.Request) (protocol.Response, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, req); err != nil {
		return protocol.Response{}, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return protocol.Response{}, err
		}
	}

	return protocol.ReadResponse(bufio.NewReader(conn))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
