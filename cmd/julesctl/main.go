package main

import (
	"fmt"
	"os"
)

const usageText = `julesctl drives Jules coding sessions from the terminal.

Usage:
  julesctl <command> [flags]

Commands:
  accounts   manage API keys (list|add|rm|use|rename|set-key)
  sources    list connected repositories
  sessions   list sessions
  create     start a session
  show       print a session's activity
  send       send a message to a session
  approve    approve a session's pending plan
  watch      follow a session's activity as it arrives
  ui         run the terminal UI
  config     print configuration (effective or defaults)
  version    print the build version
  help       show help

Flags:
  -h, --help   show help

Examples:
  julesctl accounts add --name work
  julesctl sessions --status waiting --query login
  julesctl create --prompt "Add retries to the HTTP client"
  julesctl watch --until-done 1234567890
  julesctl config --format toml
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
