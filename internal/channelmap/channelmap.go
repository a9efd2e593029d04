// Package channelmap resolves electrode channel indices to their bank,
// in-bank position and reference resistance.
package channelmap

import "errors"

// Bank identifies one of the two electrode banks sharing a calibration line.
type Bank string

const (
	BankA Bank = "A"
	BankB Bank = "B"
)

const (
	// MinChannel is the lowest valid electrode channel index.
	MinChannel = 1
	// MaxChannel is the highest valid electrode channel index.
	MaxChannel = 32
	// BankSize is the number of channels per bank.
	BankSize = 16
)

// ErrOutOfRange is returned when a channel index is outside [1,32].
var ErrOutOfRange = errors.New("channelmap: channel out of range")

// referenceTable maps in-bank position (1..16) to the reference resistance
// used as the calibration's independent variable. Both banks share it.
var referenceTable = [BankSize]float64{
	300, 500, 1000, 1500, 2000, 3000, 4000, 5000,
	6000, 7000, 8000, 9000, 10000, 12000, 14000, 15000,
}

// Channel is the resolved location of an electrode channel.
type Channel struct {
	Index          int
	Bank           Bank
	PositionInBank int
	Reference      float64
}

// Resolve maps a channel index to its bank, position and reference resistance.
func Resolve(channel int) (Channel, error) {
	if channel < MinChannel || channel > MaxChannel {
		return Channel{}, ErrOutOfRange
	}
	bank := BankA
	if channel > BankSize {
		bank = BankB
	}
	position := ((channel - 1) % BankSize) + 1
	return Channel{
		Index:          channel,
		Bank:           bank,
		PositionInBank: position,
		Reference:      referenceTable[position-1],
	}, nil
}

// ReferenceForPosition returns the reference resistance for an in-bank
// position, or false when the position is outside [1,16].
func ReferenceForPosition(position int) (float64, bool) {
	if position < 1 || position > BankSize {
		return 0, false
	}
	return referenceTable[position-1], true
}

// Banks lists both banks in display order.
func Banks() []Bank {
	return []Bank{BankA, BankB}
}

// Valid reports whether the bank is one of the two known banks.
func (b Bank) Valid() bool {
	return b == BankA || b == BankB
}
