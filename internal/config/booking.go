package config

import "time"

// BookingConfig holds the business limits of the booking flow and the
// timing of background work around it.
type BookingConfig struct {
    MaxSeats        int           // largest cart accepted by the atomic hold
    MinSeats        int           // smallest cart accepted
    HoldTTL         time.Duration // how long a hold waits for payment proof
    SweepInterval   time.Duration // how often expired holds are released
    SweepBatch      int           // bookings released per sweep
    StreamHeartbeat time.Duration // SSE keep-alive comment interval
    PublishEvents   bool          // publish booking events to RabbitMQ
}

// LoadBookingConfig reads BOOKING_*, HOLD_* and SSE_* variables.  Invalid
// or missing values fall back to defaults.
func LoadBookingConfig() BookingConfig {
    c := BookingConfig{
        MaxSeats:        envInt("BOOKING_MAX_SEATS", 10),
        MinSeats:        envInt("BOOKING_MIN_SEATS", 1),
        HoldTTL:         envDur("HOLD_TTL", 60*time.Minute),
        SweepInterval:   envDur("HOLD_SWEEP_INTERVAL", 30*time.Second),
        SweepBatch:      envInt("HOLD_SWEEP_BATCH", 100),
        StreamHeartbeat: envDur("SSE_HEARTBEAT", 15*time.Second),
        PublishEvents:   envBool("BOOKING_EVENTS_ENABLED", true),
    }
    if c.MinSeats < 1 { c.MinSeats = 1 }
    if c.MaxSeats < c.MinSeats { c.MaxSeats = c.MinSeats }
    if c.HoldTTL <= 0 { c.HoldTTL = 60 * time.Minute }
    if c.SweepInterval <= 0 { c.SweepInterval = 30 * time.Second }
    if c.SweepBatch < 1 { c.SweepBatch = 100 }
    if c.StreamHeartbeat <= 0 { c.StreamHeartbeat = 15 * time.Second }
    return c
}
