package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Case is a donation case whose funded amount tracks approved contributions.
type Case struct {
	ID                 string
	ExternalID         string
	Title              string
	Category           string
	TargetAmount       decimal.Decimal
	CurrentAmount      decimal.Decimal
	FirstContributedAt *time.Time
	CreatedAt          time.Time
}
