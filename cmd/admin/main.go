package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "latest":
			latestCmd(os.Args[2:])
			return
		case "counts":
			countsCmd(os.Args[2:])
			return
		case "records":
			recordsCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin latest|counts|records [flags]")
	os.Exit(2)
}

func requireFlag(name, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		fmt.Fprintln(os.Stderr, "missing -"+name)
		os.Exit(2)
	}
	return v
}
