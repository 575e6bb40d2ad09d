package tui

import (
	"time"

	"mediassist/internal/api"
)

// authDoneMsg reports a login or register attempt.
type authDoneMsg struct {
	account *api.Account
	email   string
	err     error
}

// opDoneMsg reports a controller operation that only needs a re-render.
type opDoneMsg struct {
	err error
}

// sendDoneMsg reports a send; the draft may need restoring on failure.
type sendDoneMsg struct {
	err error
}

type tickMsg time.Time
