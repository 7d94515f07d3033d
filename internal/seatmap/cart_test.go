package seatmap

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seats(n int) []*model.Seat {
	out := make([]*model.Seat, n)
	for i := range out {
		out[i] = &model.Seat{ID: fmt.Sprintf("S%d", i+1), Status: model.SeatAvailable, Category: "Regular"}
	}
	return out
}

func TestCart_ToggleOddCountProperty(t *testing.T) {
	pool := seats(15)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		cart := NewCart(DefaultMaxSeats)
		want := map[string]bool{}
		for step := 0; step < 200; step++ {
			s := pool[rng.Intn(len(pool))]
			err := cart.Toggle(s)
			switch {
			case want[s.ID]:
				require.NoError(t, err)
				delete(want, s.ID)
			case len(want) < DefaultMaxSeats:
				require.NoError(t, err)
				want[s.ID] = true
			default:
				require.True(t, errors.Is(err, ErrMaxSeatsExceeded))
			}
			require.LessOrEqual(t, cart.Len(), DefaultMaxSeats)
		}
		assert.Equal(t, len(want), cart.Len())
		for id := range want {
			assert.True(t, cart.Contains(id))
		}
	}
}

func TestCart_ToggleParityWithinCapacity(t *testing.T) {
	pool := seats(5)
	counts := map[string]int{}
	cart := NewCart(10)
	order := []int{0, 1, 1, 2, 3, 3, 3, 4, 0, 0}
	for _, i := range order {
		require.NoError(t, cart.Toggle(pool[i]))
		counts[pool[i].ID]++
	}
	for _, s := range pool {
		assert.Equal(t, counts[s.ID]%2 == 1, cart.Contains(s.ID), s.ID)
	}
}

func TestCart_ToggleUnavailableNeverMutates(t *testing.T) {
	cart := NewCart(3)
	require.NoError(t, cart.Toggle(seats(1)[0]))

	for _, st := range []model.SeatStatus{model.SeatHold, model.SeatPendingApproval, model.SeatBooked} {
		s := &model.Seat{ID: "X-" + string(st), Status: st}
		err := cart.Toggle(s)
		var serr *SelectionError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, NotAvailable, serr.Kind)
		assert.True(t, errors.Is(err, ErrNotAvailable))
		assert.Equal(t, []string{"S1"}, cart.SeatIDs())
	}
	assert.True(t, errors.Is(cart.Toggle(nil), ErrNotAvailable))
}

func TestCart_RemoveClearTotal(t *testing.T) {
	cart := NewCart(0)
	assert.Equal(t, DefaultMaxSeats, cart.Max())

	pool := seats(3)
	pool[2].Category = "VIP"
	pool[1].Category = "Balcony"
	for _, s := range pool {
		require.NoError(t, cart.Toggle(s))
	}
	cats := model.NewCategoryTable(testCategories())
	assert.Equal(t, int64(80000+150000), cart.Total(cats))

	cart.Remove("S2")
	cart.Remove("S2")
	assert.Equal(t, []string{"S1", "S3"}, cart.SeatIDs())
	assert.Len(t, cart.Seats(), 2)

	cart.Clear()
	assert.Zero(t, cart.Len())
	assert.Zero(t, cart.Total(cats))
}

// A held member stays in the cart until the user removes it.
func TestCart_NoAutoEviction(t *testing.T) {
	be := newFakeBackend(availableVenue(2))
	c := loadedCatalog(t, be)
	cart := NewCart(2)
	s1, _ := c.Seat("S1")
	require.NoError(t, cart.Toggle(s1))

	hold := model.SeatHold
	c.ApplyPatch("S1", SeatPatch{Status: &hold})
	assert.True(t, cart.Contains("S1"))
}

func TestScenario_SelectAvailableAndBooked(t *testing.T) {
	c := loadedCatalog(t, newFakeBackend(testVenue(model.SeatAvailable, model.SeatBooked)))
	cart := NewCart(DefaultMaxSeats)

	s1, _ := c.Seat("S1")
	s2, _ := c.Seat("S2")
	assert.NoError(t, cart.Toggle(s1))
	assert.True(t, errors.Is(cart.Toggle(s2), ErrNotAvailable))
	assert.Equal(t, 1, cart.Len())
}

func TestScenario_CartAtCapacity(t *testing.T) {
	c := loadedCatalog(t, newFakeBackend(availableVenue(DefaultMaxSeats+1)))
	cart := NewCart(DefaultMaxSeats)
	for i := 1; i <= DefaultMaxSeats; i++ {
		s, _ := c.Seat(fmt.Sprintf("S%d", i))
		require.NoError(t, cart.Toggle(s))
	}

	extra, _ := c.Seat(fmt.Sprintf("S%d", DefaultMaxSeats+1))
	err := cart.Toggle(extra)
	var serr *SelectionError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, MaxSeatsExceeded, serr.Kind)
	assert.Equal(t, DefaultMaxSeats, serr.Max)
	assert.Equal(t, DefaultMaxSeats, cart.Len())
}
