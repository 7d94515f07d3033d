// Command seatctl drives the seat selection core against a running server
// and performs the admin review steps from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var commands = []command{
	{"show", "print the seat map of a venue", runShow},
	{"watch", "stream seat changes of a venue", runWatch},
	{"book", "select seats and submit one atomic booking", runBook},
	{"resume", "show the booking saved by the last successful submission", runResume},
	{"proof", "attach a payment proof URL to a held booking", runProof},
	{"approve", "approve a pending booking (admin)", runReview("approve")},
	{"reject", "reject a booking and free its seats (admin)", runReview("reject")},
	{"category", "show or hide a seat category (admin)", runCategory},
	{"token", "mint an access token signed with JWT_SECRET", runToken},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: seatctl <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "seatctl:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, name string, args []string, out io.Writer) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, args, out)
		}
	}
	usage(out)
	return fmt.Errorf("unknown command %q", name)
}
