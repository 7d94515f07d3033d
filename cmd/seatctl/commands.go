package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/event-seat-booking/internal/client"
	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/seatmap"
	"github.com/iliyamo/event-seat-booking/internal/utils"
)

// common holds the flags every command accepts.
type common struct {
	server   string
	token    string
	logLevel string
}

func (c *common) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.server, "server", envOr("SEATCTL_SERVER", "http://localhost:8080"), "API base URL")
	fs.StringVar(&c.token, "token", os.Getenv("SEATCTL_TOKEN"), "bearer token for admin calls")
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level")
}

func (c *common) backend() (*client.HTTPBackend, logger.Logger) {
	log := logger.New(c.logLevel, "console")
	return client.New(c.server, client.WithToken(c.token), client.WithLogger(log)), log
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func runShow(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlags("show")
	c.register(fs)
	venue := fs.String("venue", "", "venue id")
	zone := fs.String("zone", "", "focus on one zone")
	vw := fs.Float64("viewport-width", 1280, "viewport width used to compute zone focus")
	vh := fs.Float64("viewport-height", 720, "viewport height used to compute zone focus")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *venue == "" {
		return errors.New("--venue is required")
	}
	b, log := c.backend()
	cat := seatmap.NewCatalog(b, log)
	if err := cat.Load(ctx, *venue); err != nil {
		return err
	}
	printVenue(out, cat, nil, *zone, *vw, *vh)
	return nil
}

var statusGlyph = map[model.SeatStatus]string{
	model.SeatAvailable:       "o",
	model.SeatHold:            "h",
	model.SeatPendingApproval: "p",
	model.SeatBooked:          "x",
}

// printVenue renders zones and rows as text.  Selected seats print as "*".
func printVenue(out io.Writer, cat *seatmap.Catalog, cart *seatmap.Cart, onlyZone string, vw, vh float64) {
	v := cat.Snapshot()
	cats := cat.Categories()
	fmt.Fprintf(out, "%s (%s)\n", v.Name, v.ID)
	for _, z := range v.Zones {
		if onlyZone != "" && z.ID != onlyZone {
			continue
		}
		color := seatmap.ZoneColor(z, cats)
		fmt.Fprintf(out, "\nzone %s %s %s\n", z.ID, z.Name, color)
		if b, ok := seatmap.ZoneBounds(z); ok {
			f := seatmap.FocusOnZone(b, vw, vh)
			fmt.Fprintf(out, "  focus scale=%.2f center=(%.0f,%.0f)\n", f.Scale, f.CenterX, f.CenterY)
		}
		for _, r := range z.Rows {
			var sb strings.Builder
			for _, s := range r.Seats {
				g := statusGlyph[s.Status]
				if cart != nil && cart.Contains(s.ID) {
					g = "*"
				}
				sb.WriteString(g)
			}
			fmt.Fprintf(out, "  %-4s %s\n", r.RowNumber, sb.String())
		}
	}
	names := make([]string, 0, len(cats))
	for n := range cats {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(out)
	for _, n := range names {
		fmt.Fprintf(out, "  %-12s %-8s %d\n", n, cats[n].Color, cats[n].Price)
	}
}

func runWatch(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlags("watch")
	c.register(fs)
	venue := fs.String("venue", "", "venue id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *venue == "" {
		return errors.New("--venue is required")
	}
	b, _ := c.backend()
	sub, err := b.Subscribe(ctx, *venue, func(s model.Seat) {
		fmt.Fprintf(out, "%s %s %s\n", time.Now().Format(time.TimeOnly), s.ID, s.Status)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Close()
}

// recoveryStore returns a Redis-backed store when a session id is given
// and Redis answers, else an in-process one.
func recoveryStore(session string, ttl time.Duration) seatmap.RecoveryStore {
	if session == "" {
		return seatmap.NewMemoryRecovery()
	}
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		return seatmap.NewMemoryRecovery()
	}
	return seatmap.NewRedisRecovery(rdb, session, ttl)
}

func runBook(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlags("book")
	c.register(fs)
	venue := fs.String("venue", "", "venue id")
	seats := fs.StringSlice("seats", nil, "seat ids to select, comma separated")
	name := fs.String("name", "", "name on the booking")
	email := fs.String("email", "", "contact email")
	phone := fs.String("phone", "", "contact phone")
	proof := fs.String("proof", "", "payment proof URL")
	session := fs.String("session", "", "session id used to persist the pending booking in Redis")
	maxSeats := fs.Int("max-seats", seatmap.DefaultMaxSeats, "largest selection allowed")
	timeout := fs.Duration("timeout", seatmap.DefaultSubmitTimeout, "booking call timeout")
	hold := fs.Duration("hold", seatmap.DefaultHoldWindow, "how long a saved booking can be resumed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *venue == "" {
		return errors.New("--venue is required")
	}

	b, log := c.backend()
	cat := seatmap.NewCatalog(b, log)
	if err := cat.Load(ctx, *venue); err != nil {
		return err
	}
	rec := seatmap.NewReconciler(b, cat, log)
	if err := rec.Start(ctx, *venue); err != nil {
		fmt.Fprintln(out, "warning: live updates unavailable:", err)
	}
	defer rec.Stop()

	cart := seatmap.NewCart(*maxSeats)
	for _, id := range *seats {
		seat, ok := cat.Seat(id)
		if !ok {
			return fmt.Errorf("unknown seat %s", id)
		}
		if err := cart.Toggle(seat); err != nil {
			return fmt.Errorf("select %s: %w", cat.SeatLabel(id), err)
		}
	}
	fmt.Fprintf(out, "selected %d seat(s), total %d\n", cart.Len(), cart.Total(cat.Categories()))

	sub := seatmap.NewSubmitter(b, cat, cart, recoveryStore(*session, *hold), log,
		seatmap.WithTimeout(*timeout), seatmap.WithHoldWindow(*hold))
	outcome, err := sub.Submit(ctx, seatmap.GuestInfo{Name: *name, Email: *email, Phone: *phone, PaymentProofURL: *proof})
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case seatmap.OutcomeSuccess:
		fmt.Fprintf(out, "booked: %s\n", outcome.BookingID)
		return nil
	case seatmap.OutcomeRejected:
		return fmt.Errorf("rejected: %s", outcome.Message)
	default:
		return fmt.Errorf("failed: %s", outcome.Message)
	}
}

func runResume(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlags("resume")
	c.register(fs)
	session := fs.String("session", "", "session id used when booking")
	hold := fs.Duration("hold", seatmap.DefaultHoldWindow, "hold window")
	forget := fs.Bool("forget", false, "clear the saved booking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *session == "" {
		return errors.New("--session is required")
	}
	b, log := c.backend()
	sub := seatmap.NewSubmitter(b, nil, nil, recoveryStore(*session, *hold), log, seatmap.WithHoldWindow(*hold))
	if *forget {
		return sub.Forget(ctx)
	}
	p, ok, err := sub.Resume(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "no pending booking")
		return nil
	}
	bk, err := b.Booking(ctx, p.BookingID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s amount=%d expires=%s\n", bk.ID, bk.Status, bk.Amount, bk.HoldExpiresAt.Format(time.RFC3339))
	return nil
}

func runProof(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlags("proof")
	c.register(fs)
	id := fs.String("booking", "", "booking id")
	u := fs.String("url", "", "payment proof URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *u == "" {
		return errors.New("--booking and --url are required")
	}
	b, _ := c.backend()
	bk, err := b.SubmitPaymentProof(ctx, *id, *u)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", bk.ID, bk.Status)
	return nil
}

func runReview(action string) func(context.Context, []string, io.Writer) error {
	return func(ctx context.Context, args []string, out io.Writer) error {
		var c common
		fs := newFlags(action)
		c.register(fs)
		id := fs.String("booking", "", "booking id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("--booking is required")
		}
		b, _ := c.backend()
		review := b.Approve
		if action == "reject" {
			review = b.Reject
		}
		bk, err := review(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", bk.ID, bk.Status)
		return nil
	}
}

func runCategory(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlags("category")
	c.register(fs)
	name := fs.String("name", "", "category name")
	visible := fs.Bool("visible", true, "whether guests can see the category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("--name is required")
	}
	b, _ := c.backend()
	if err := b.SetCategoryVisibility(ctx, *name, *visible); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s visible=%t\n", *name, *visible)
	return nil
}

func runToken(_ context.Context, args []string, out io.Writer) error {
	fs := newFlags("token")
	subject := fs.String("subject", "", "token subject, recorded as the reviewer")
	role := fs.String("role", "ADMIN", "role claim")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if *subject == "" {
		return errors.New("--subject is required")
	}
	tok, err := utils.NewAccessToken(secret, *subject, *role, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok.Token)
	return nil
}
